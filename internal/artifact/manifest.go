package artifact

import (
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// ManifestFilename is the manifest published next to the installers.
	ManifestFilename = "dist-artifacts.yaml"

	// DefaultFileMode is applied to staged installers.
	DefaultFileMode os.FileMode = 0o755

	// DefaultChecksumFunction is used to calculate installer hashes.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512
)

var (
	errHashUnavailable = errors.New("hash function unavailable")
	// ErrNoChecksum is returned when the manifest has no checksum for a file.
	ErrNoChecksum = errors.New("checksum missing for file")
	// ErrNoInstaller is returned when the manifest has no files for a provider.
	ErrNoInstaller = errors.New("no installer for provider")
	// ErrVersionMismatch is returned when the manifest describes another version.
	ErrVersionMismatch = errors.New("manifest version mismatch")
)

// Manifest describes the installers published for one distribution version.
type Manifest struct {
	// Version is the distribution version the installers install.
	Version string `yaml:"version"`
	// Files maps file names to base64-encoded SHA-512 checksums.
	Files map[string]string `yaml:"files"`
	// Installers maps provider names to their files; the first one is the installer.
	Installers map[string][]string `yaml:"installers"`
}

// NewManifest returns an empty manifest for version.
func NewManifest(version string) *Manifest {
	return &Manifest{
		Version:    version,
		Files:      make(map[string]string),
		Installers: make(map[string][]string),
	}
}

// ParseManifest decodes a YAML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	return &m, nil
}

// FilesFor returns the files of provider after checking each has a checksum.
func (m *Manifest) FilesFor(provider string) ([]string, error) {
	files, ok := m.Installers[provider]
	if !ok || len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", provider, ErrNoInstaller)
	}

	for _, name := range files {
		if _, ok = m.Files[name]; !ok {
			return nil, fmt.Errorf("%s: %w", name, ErrNoChecksum)
		}
	}

	return files, nil
}

// ChecksumOf decodes the checksum recorded for name.
func (m *Manifest) ChecksumOf(name string) ([]byte, error) {
	encoded, ok := m.Files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNoChecksum)
	}

	sum, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode checksum of %s: %w", name, err)
	}

	return sum, nil
}

// Checksum returns checksum bytes for a file using DefaultChecksumFunction.
func Checksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

// Build computes a manifest for the installers found in dir.
// installers maps providers to file names relative to dir; missing files are skipped
// together with their provider.
func Build(dir, version string, installers map[string][]string) (*Manifest, error) {
	m := NewManifest(version)

	providers := make([]string, 0, len(installers))
	for provider := range installers {
		providers = append(providers, provider)
	}

	sort.Strings(providers)

	for _, provider := range providers {
		files := installers[provider]

		present, err := checksumAll(dir, files, m.Files)
		if err != nil {
			return nil, err
		}

		if present {
			m.Installers[provider] = append([]string(nil), files...)
		}
	}

	if len(m.Installers) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoInstaller)
	}

	return m, nil
}

// checksumAll records checksums of files into sums only when every file is present.
func checksumAll(dir string, files []string, sums map[string]string) (bool, error) {
	found := make(map[string]string, len(files))

	for _, name := range files {
		path := filepath.Join(dir, name)

		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return false, nil
		} else if err != nil {
			return false, fmt.Errorf("stat %s: %w", name, err)
		}

		sum, err := Checksum(path)
		if err != nil {
			return false, err
		}

		found[name] = base64.StdEncoding.EncodeToString(sum)
	}

	maps.Copy(sums, found)

	return true, nil
}

// Write stores m as ManifestFilename in dir.
func Write(dir string, m *Manifest) (string, error) {
	contents, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}

	path := filepath.Join(dir, ManifestFilename)
	if err = os.WriteFile(path, contents, DefaultFileMode); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}

	return path, nil
}
