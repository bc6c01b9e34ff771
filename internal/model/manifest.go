package model

import "time"

// ManifestEntry records one file that went into a bundle.
type ManifestEntry struct {
	Origin Origin `yaml:"origin"`
	Path   string `yaml:"path"`
	Size   int64  `yaml:"size"`
	SHA256 string `yaml:"sha256"`
}

// Manifest describes a written bundle so it can be verified later.
type Manifest struct {
	Goal        string          `yaml:"goal"`
	Output      Path            `yaml:"output"`
	GeneratedAt time.Time       `yaml:"generated_at"`
	SHA256      string          `yaml:"sha256"`
	Size        int64           `yaml:"size"`
	Entries     []ManifestEntry `yaml:"entries"`
}
