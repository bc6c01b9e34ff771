package domain

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kjsbundle.dev/pkg/kjsbundle/internal/adapter"
	m "kjsbundle.dev/pkg/kjsbundle/internal/model"
)

func testConfig() m.Config {
	return m.Config{
		ExtractDirectory: "/project/target/kotlin-js-bundle/test-dependencies",
		OutputDirectory:  testDir,
		OutputFilename:   "app-tests.bundle.js",
		DependencyScope:  m.ScopeTest,
	}
}

func newMemBundler(t *testing.T, files map[string]string) (*bundler, Collector, afero.Fs) {
	t.Helper()

	collector, fs := newMemCollector(t, files)
	b := NewBundler(adapter.NewSourceFSAdapter(fs)).(*bundler)
	b.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	return b, collector, fs
}

func TestBundler_ConcatenatesInOrder(t *testing.T) {
	b, collector, fs := newMemBundler(t, map[string]string{
		mainDir + "/App.js":     "var app = 1;\n",
		testDir + "/AppTest.js": "var test = app;",
	})

	cfg := testConfig()

	manifest, err := b.Bundle(context.Background(), "test-bundle", cfg, collector.Collect(mainDir, testDir))
	require.NoError(t, err)

	content, err := afero.ReadFile(fs, string(cfg.OutputPath()))
	require.NoError(t, err)

	want := "var app = 1;\nvar test = app;\n"
	assert.Equal(t, want, string(content))

	assert.Equal(t, "test-bundle", manifest.Goal)
	assert.Equal(t, cfg.OutputPath(), manifest.Output)
	assert.Equal(t, int64(len(want)), manifest.Size)
	assert.Equal(t, fmt.Sprintf("%x", sha256.Sum256([]byte(want))), manifest.SHA256)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), manifest.GeneratedAt)

	require.Len(t, manifest.Entries, 2)
	assert.Equal(t, m.ManifestEntry{
		Origin: m.OriginMain,
		Path:   "App.js",
		Size:   13,
		SHA256: fmt.Sprintf("%x", sha256.Sum256([]byte("var app = 1;\n"))),
	}, manifest.Entries[0])
	assert.Equal(t, "AppTest.js", manifest.Entries[1].Path)
	assert.Equal(t, m.OriginTest, manifest.Entries[1].Origin)
}

func TestBundler_SkipsOwnOutputOnRebuild(t *testing.T) {
	b, collector, fs := newMemBundler(t, map[string]string{
		mainDir + "/App.js":     "app\n",
		testDir + "/AppTest.js": "test\n",
	})

	cfg := testConfig()

	_, err := b.Bundle(context.Background(), "test-bundle", cfg, collector.Collect(mainDir, testDir))
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, string(adapter.ManifestPath(cfg.OutputPath())), []byte("goal: x\n"), 0o644))

	manifest, err := b.Bundle(context.Background(), "test-bundle", cfg, collector.Collect(mainDir, testDir))
	require.NoError(t, err)

	content, err := afero.ReadFile(fs, string(cfg.OutputPath()))
	require.NoError(t, err)
	assert.Equal(t, "app\ntest\n", string(content))
	assert.Len(t, manifest.Entries, 2)

	leftovers, err := afero.Glob(fs, filepath.Join(testDir, ".app-tests.bundle.js.*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temp files are renamed or removed")
}

func TestBundler_SkipsOwnOutputWithMixedPaths(t *testing.T) {
	chdirTemp(t)

	wd, err := os.Getwd()
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join("target", "classes"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join("target", "test-classes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("target", "classes", "App.js"), []byte("a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join("target", "test-classes", "AppTest.js"), []byte("t\n"), 0o644))

	fsAdapter := adapter.NewLocalSourceFSAdapter()
	b := NewBundler(fsAdapter)
	collector := NewCollector(fsAdapter)

	cfg := testConfig()
	cfg.OutputDirectory = m.Path(filepath.Join(wd, "target", "test-classes"))

	for run := range 3 {
		manifest, err := b.Bundle(context.Background(), "test-bundle", cfg, collector.Collect("target/classes", "target/test-classes"))
		require.NoError(t, err, "run %d", run)
		require.Len(t, manifest.Entries, 2, "run %d", run)

		require.NoError(t, os.WriteFile(string(adapter.ManifestPath(cfg.OutputPath())), []byte("goal: test-bundle\n"), 0o644))
	}

	content, err := os.ReadFile(string(cfg.OutputPath()))
	require.NoError(t, err)
	assert.Equal(t, "a\nt\n", string(content))
}

func TestBundler_EmptyInputsWriteEmptyBundle(t *testing.T) {
	b, collector, fs := newMemBundler(t, nil)
	cfg := testConfig()

	manifest, err := b.Bundle(context.Background(), "test-bundle", cfg, collector.Collect(mainDir, testDir))
	require.NoError(t, err)
	assert.Empty(t, manifest.Entries)

	content, err := afero.ReadFile(fs, string(cfg.OutputPath()))
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestBundler_IncludeFilter(t *testing.T) {
	b, collector, fs := newMemBundler(t, map[string]string{
		mainDir + "/App.js":   "app\n",
		mainDir + "/App.kjsm": "binary",
	})

	cfg := testConfig()
	cfg.Include = []string{".js"}

	manifest, err := b.Bundle(context.Background(), "test-bundle", cfg, collector.Collect(mainDir, testDir))
	require.NoError(t, err)
	require.Len(t, manifest.Entries, 1)

	content, err := afero.ReadFile(fs, string(cfg.OutputPath()))
	require.NoError(t, err)
	assert.Equal(t, "app\n", string(content))
}

func TestBundler_InvalidConfig(t *testing.T) {
	b, collector, _ := newMemBundler(t, nil)

	cfg := testConfig()
	cfg.OutputFilename = ""

	_, err := b.Bundle(context.Background(), "test-bundle", cfg, collector.Collect(mainDir, testDir))
	require.ErrorIs(t, err, m.ErrInvalidConfig)
}

func TestBundler_ReadFailureKeepsPreviousBundle(t *testing.T) {
	b, _, fs := newMemBundler(t, map[string]string{
		testDir + "/app-tests.bundle.js": "previous\n",
	})

	cfg := testConfig()
	missing := func(yield func(m.Entry) bool) {
		yield(m.Entry{Origin: m.OriginMain, Path: mainDir + "/gone.js", Rel: "gone.js"})
	}

	_, err := b.Bundle(context.Background(), "test-bundle", cfg, iter.Seq[m.Entry](missing))
	require.Error(t, err)

	var bundleErr *BundleError
	require.True(t, errors.As(err, &bundleErr))
	assert.Equal(t, "open", bundleErr.Op)
	assert.Equal(t, m.Path(mainDir+"/gone.js"), bundleErr.Path)

	content, err := afero.ReadFile(fs, string(cfg.OutputPath()))
	require.NoError(t, err)
	assert.Equal(t, "previous\n", string(content))

	leftovers, err := afero.Glob(fs, filepath.Join(testDir, ".app-tests.bundle.js.*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestBundler_CancelledContext(t *testing.T) {
	b, collector, _ := newMemBundler(t, map[string]string{
		mainDir + "/App.js": "app\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Bundle(ctx, "test-bundle", testConfig(), collector.Collect(mainDir, testDir))
	require.ErrorIs(t, err, context.Canceled)
}

func TestBundler_PlanMatchesBundle(t *testing.T) {
	b, collector, fs := newMemBundler(t, map[string]string{
		mainDir + "/App.js":     "app",
		testDir + "/AppTest.js": "test\n",
	})

	cfg := testConfig()

	planned, err := b.Plan(context.Background(), "test-bundle", cfg, collector.Collect(mainDir, testDir))
	require.NoError(t, err)

	exists, err := afero.Exists(fs, string(cfg.OutputPath()))
	require.NoError(t, err)
	assert.False(t, exists, "Plan does not write")

	written, err := b.Bundle(context.Background(), "test-bundle", cfg, collector.Collect(mainDir, testDir))
	require.NoError(t, err)
	assert.Equal(t, written, planned)
}

func TestBundleable(t *testing.T) {
	cfg := testConfig()
	output := string(cfg.OutputPath())

	tests := []struct {
		name  string
		entry m.Entry
		want  bool
	}{
		{"regular file", m.Entry{Path: mainDir + "/App.js"}, true},
		{"directory", m.Entry{Path: mainDir, IsDir: true}, false},
		{"bundle itself", m.Entry{Path: m.Path(output)}, false},
		{"manifest", m.Entry{Path: adapter.ManifestPath(cfg.OutputPath())}, false},
		{"temp file", m.Entry{Path: m.Path(testDir + "/.app-tests.bundle.js.123.tmp")}, false},
		{"same name elsewhere", m.Entry{Path: mainDir + "/.app-tests.bundle.js.123.tmp"}, true},
		{"unclean spelling", m.Entry{Path: m.Path(testDir + "/../test-classes/app-tests.bundle.js")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Bundleable(cfg, tt.entry))
		})
	}
}

func TestBundleError(t *testing.T) {
	err := bundleErr("open", "a.js", errors.New("denied"))
	assert.EqualError(t, err, "open a.js: denied")

	err = bundleErr("flush", "", errors.New("full"))
	assert.EqualError(t, err, "flush: full")
}

func TestWithinDir(t *testing.T) {
	assert.True(t, withinDir("/x/deps", "/x/deps/kotlin/kotlin.js"))
	assert.False(t, withinDir("/x/deps", "/x/deps"))
	assert.False(t, withinDir("/x/deps", "/x/deps-other/a.js"))
	assert.False(t, withinDir("/x/deps", "/x/a.js"))
}

// chdirTemp switches into a fresh temp directory for the duration of the test.
func chdirTemp(t *testing.T) {
	t.Helper()

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { require.NoError(t, os.Chdir(originalWD)) })
}
