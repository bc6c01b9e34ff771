package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		ExtractDirectory: "target/kotlin-js-bundle/test-dependencies",
		OutputDirectory:  "target/test-classes",
		OutputFilename:   "app-tests.bundle.js",
		DependencyScope:  ScopeTest,
	}
}

func TestConfig_OutputPath(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, Path(filepath.Join("target", "test-classes", "app-tests.bundle.js")), cfg.OutputPath())
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty output directory", func(c *Config) { c.OutputDirectory = " " }},
		{"empty filename", func(c *Config) { c.OutputFilename = "" }},
		{"filename with separator", func(c *Config) { c.OutputFilename = "js/app.js" }},
		{"dot dot filename", func(c *Config) { c.OutputFilename = ".." }},
		{"unknown scope", func(c *Config) { c.DependencyScope = "everything" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfig_Includes(t *testing.T) {
	cfg := validConfig()
	assert.True(t, cfg.Includes("App.kjsm"), "no filter includes everything")

	cfg.Include = []string{".js", "mjs"}
	assert.True(t, cfg.Includes("App.js"))
	assert.True(t, cfg.Includes("App.mjs"))
	assert.False(t, cfg.Includes("App.kjsm"))
}

func TestFileRef_Walkable(t *testing.T) {
	assert.True(t, FileRef{Exists: true, IsDir: true}.Walkable())
	assert.False(t, FileRef{Exists: true}.Walkable())
	assert.False(t, FileRef{IsDir: true}.Walkable())
}
