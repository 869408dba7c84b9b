package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/dist-check/internal/domain/dist"
)

// Repository defines persistence operations for run reports.
type Repository interface {
	Save(ctx context.Context, report *dist.Report) (string, error)
	Latest(ctx context.Context) (*dist.Report, error)
}

const (
	filePrefix = "report-"
	fileSuffix = ".yaml"

	dirPermissions  = 0o750
	filePermissions = 0o600
)

// FileRepository persists reports as YAML files in a directory.
type FileRepository struct {
	// dir holds one file per report.
	dir string
	// mu serializes writers and readers of the directory.
	mu sync.Mutex
}

var (
	// ErrNotFound is returned when no report has been saved yet.
	ErrNotFound = errors.New("report not found")
	// errReportIsNotSet is returned when Save is called with nil.
	errReportIsNotSet = errors.New("report is not set")
)

// NewFileRepository creates a repository that reads/writes reports under dir.
func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{
		dir: filepath.Clean(dir),
	}
}

// Save writes report to a new file named after its start time and returns the path.
func (r *FileRepository) Save(_ context.Context, report *dist.Report) (string, error) {
	if report == nil {
		return "", errReportIsNotSet
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.dir, dirPermissions); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	path := filepath.Join(r.dir, fmt.Sprintf("%s%d%s", filePrefix, report.StartedAt.UnixNano(), fileSuffix))
	if err = os.WriteFile(path, data, filePermissions); err != nil {
		return "", fmt.Errorf("write report file: %w", err)
	}

	return path, nil
}

// Latest reads the most recently started report.
func (r *FileRepository) Latest(_ context.Context) (*dist.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read reports directory: %w", err)
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.Type().IsRegular() && strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix) {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return nil, ErrNotFound
	}

	latest := slices.MaxFunc(names, func(a, b string) int {
		return compareStamps(stamp(a), stamp(b))
	})

	contents, err := os.ReadFile(filepath.Join(r.dir, latest))
	if err != nil {
		return nil, fmt.Errorf("read report file: %w", err)
	}

	var report dist.Report
	if err = yaml.Unmarshal(contents, &report); err != nil {
		return nil, fmt.Errorf("decode report file: %w", err)
	}

	return &report, nil
}

func stamp(name string) string {
	return strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
}

// compareStamps orders decimal stamps numerically without parsing them.
func compareStamps(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}

	return strings.Compare(a, b)
}
