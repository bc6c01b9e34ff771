package adapter

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	m "kjsbundle.dev/pkg/kjsbundle/internal/model"
)

// ManifestSuffix is appended to a bundle path to get its manifest path.
const ManifestSuffix = ".manifest.yaml"

// ManifestStore persists bundle manifests next to the bundle they describe.
type ManifestStore interface {
	SaveManifest(bundle m.Path, manifest m.Manifest) error
	LoadManifest(bundle m.Path) (m.Manifest, error)
	EncodeManifest(manifest m.Manifest) ([]byte, error)
}

type yamlManifestStore struct {
	fs afero.Fs
}

// NewManifestStore returns a ManifestStore writing YAML files through fs.
func NewManifestStore(fs afero.Fs) ManifestStore {
	return &yamlManifestStore{fs: fs}
}

// ManifestPath returns where the manifest of bundle is stored.
func ManifestPath(bundle m.Path) m.Path {
	return m.Path(string(bundle) + ManifestSuffix)
}

func (s *yamlManifestStore) EncodeManifest(manifest m.Manifest) ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(manifest); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	return buf.Bytes(), nil
}

func (s *yamlManifestStore) SaveManifest(bundle m.Path, manifest m.Manifest) error {
	data, err := s.EncodeManifest(manifest)
	if err != nil {
		return err
	}

	path := ManifestPath(bundle)
	if err := afero.WriteFile(s.fs, string(path), data, 0o644); err != nil {
		slog.Error("failed to write manifest", "path", path, "error", err)
		return fmt.Errorf("write manifest %s: %w", path, err)
	}

	slog.Debug("saved manifest", "path", path, "entries", len(manifest.Entries))

	return nil
}

func (s *yamlManifestStore) LoadManifest(bundle m.Path) (m.Manifest, error) {
	path := ManifestPath(bundle)

	data, err := afero.ReadFile(s.fs, string(path))
	if err != nil {
		return m.Manifest{}, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var manifest m.Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return m.Manifest{}, fmt.Errorf("decode manifest %s: %w", path, err)
	}

	return manifest, nil
}
