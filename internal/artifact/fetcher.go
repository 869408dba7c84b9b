package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"
	"golang.org/x/sync/errgroup"

	"github.com/oshokin/dist-check/internal/logger"
)

// maxParallelDownloads bounds concurrent installer downloads.
const maxParallelDownloads = 4

var (
	errBadHTTPStatus = errors.New("unexpected http status")
	// ErrNoSource is returned when no artifacts URL is configured.
	ErrNoSource = errors.New("artifacts URL is not configured")
)

// Fetcher downloads installers described by a remote manifest.
type Fetcher struct {
	// baseURL is the folder holding the manifest and installers.
	baseURL string
	// client performs the HTTP requests.
	client *http.Client
}

// NewFetcher creates a fetcher for the folder at baseURL. A nil client means http.DefaultClient.
func NewFetcher(baseURL string, client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}

	return &Fetcher{
		baseURL: baseURL,
		client:  client,
	}
}

// FetchManifest downloads and decodes the manifest.
func (f *Fetcher) FetchManifest(ctx context.Context) (*Manifest, error) {
	body, err := f.get(ctx, ManifestFilename)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = body.Close()
	}()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return ParseManifest(data)
}

// Transfer stages the files of provider for version into dir and returns their
// local paths, installer first. Files are downloaded concurrently into a
// temporary directory and then applied one by one with checksum verification.
func (f *Fetcher) Transfer(ctx context.Context, provider, version, dir string) ([]string, error) {
	if f.baseURL == "" {
		return nil, ErrNoSource
	}

	manifest, err := f.FetchManifest(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}

	if manifest.Version != version {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrVersionMismatch, version, manifest.Version)
	}

	files, err := manifest.FilesFor(provider)
	if err != nil {
		return nil, err
	}

	temporaryDirectory, err := os.MkdirTemp("", "dist-check-artifacts-")
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = os.RemoveAll(temporaryDirectory)
	}()

	if err = f.downloadAll(ctx, files, temporaryDirectory); err != nil {
		return nil, err
	}

	if err = os.MkdirAll(dir, DefaultFileMode); err != nil {
		return nil, fmt.Errorf("create artifacts dir: %w", err)
	}

	staged := make([]string, 0, len(files))

	for _, name := range files {
		target := filepath.Join(dir, name)

		if err = applyFile(filepath.Join(temporaryDirectory, name), target, manifest); err != nil {
			return nil, fmt.Errorf("apply %s: %w", name, err)
		}

		logger.InfoKV(ctx, "Staged artifact", "file", target)

		staged = append(staged, target)
	}

	return staged, nil
}

// downloadAll fetches files into dir concurrently.
func (f *Fetcher) downloadAll(ctx context.Context, files []string, dir string) error {
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDownloads)

	for _, name := range files {
		g.Go(func() error {
			return f.download(groupCtx, name, filepath.Join(dir, name))
		})
	}

	return g.Wait()
}

// download stores one remote file at target.
func (f *Fetcher) download(ctx context.Context, name, target string) error {
	body, err := f.get(ctx, name)
	if err != nil {
		return err
	}

	defer func() {
		_ = body.Close()
	}()

	out, err := os.Create(filepath.Clean(target))
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, body); err != nil {
		_ = out.Close()

		return fmt.Errorf("download %s: %w", name, err)
	}

	logger.DebugKV(ctx, "Downloaded artifact", "file", name)

	return out.Close()
}

// get opens a file from the artifacts folder.
func (f *Fetcher) get(ctx context.Context, name string) (io.ReadCloser, error) {
	folder, err := url.Parse(f.baseURL)
	if err != nil {
		return nil, err
	}

	// Use path.Join to normalize duplicate slashes when composing the URL path.
	folder.Path = path.Join(folder.Path, name)
	finalURL := folder.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		_ = response.Body.Close()

		return nil, fmt.Errorf("%s, %s: %w", finalURL, response.Status, errBadHTTPStatus)
	}

	return response.Body, nil
}

// applyFile moves source to target with go-update, verifying the manifest checksum.
func applyFile(source, target string, manifest *Manifest) error {
	sum, err := manifest.ChecksumOf(filepath.Base(target))
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Clean(source))
	if err != nil {
		return err
	}

	if _, err = os.Stat(target); errors.Is(err, os.ErrNotExist) {
		var placeholder *os.File

		if placeholder, err = os.Create(target); err != nil {
			return err
		}

		_ = placeholder.Close()
	}

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: DefaultFileMode,
		Checksum:   sum,
		Hash:       DefaultChecksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		if rollbackErr := goupdate.RollbackError(err); rollbackErr != nil {
			return fmt.Errorf("%w (rollback failed: %w)", err, rollbackErr)
		}

		return err
	}

	return nil
}

// Clean removes staged files and the staging dir when it ends up empty.
func Clean(dir string, files []string) error {
	var errs []error

	for _, name := range files {
		target := filepath.Join(dir, filepath.Base(name))
		if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err == nil && len(entries) == 0 {
		_ = os.Remove(dir)
	}

	return errors.Join(errs...)
}
