// Package domain implements collecting, extracting and bundling JavaScript output.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"kjsbundle.dev/pkg/kjsbundle/internal/adapter"
	"kjsbundle.dev/pkg/kjsbundle/internal/controller"
	m "kjsbundle.dev/pkg/kjsbundle/internal/model"
)

// BundleArgs contains everything one goal invocation needs.
type BundleArgs struct {
	Goal         Goal
	Project      m.Project
	Config       m.Config
	Dependencies []m.Artifact
}

// Workflow defines the operations exposed by the CLI.
type Workflow interface {
	// Run extracts dependencies, collects project output and writes the bundle.
	Run(ctx context.Context, args BundleArgs) error
	// List shows the entries Run would bundle without writing anything.
	List(ctx context.Context, args BundleArgs) error
	// Verify checks the written bundle against its current inputs.
	Verify(ctx context.Context, args BundleArgs) error
	// Watch runs once and again after every change until ctx is cancelled.
	Watch(ctx context.Context, args BundleArgs) error
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.ManifestStore
	adapter.ChangeWatcher
	controller.UI
	Collector
	Extractor
	Bundler
}

// NewWorkflow creates a Workflow from its collaborators.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	manifestStore adapter.ManifestStore,
	changeWatcher adapter.ChangeWatcher,
	ui controller.UI,
	collector Collector,
	extractor Extractor,
	bundler Bundler,
) Workflow {
	return &workflow{
		SourceFSAdapter: fsAdapter,
		ManifestStore:   manifestStore,
		ChangeWatcher:   changeWatcher,
		UI:              ui,
		Collector:       collector,
		Extractor:       extractor,
		Bundler:         bundler,
	}
}

func (w *workflow) Run(ctx context.Context, args BundleArgs) error {
	manifest, err := w.bundle(ctx, args)
	if err != nil {
		return err
	}

	return w.DisplayBundle(ctx, manifest)
}

func (w *workflow) bundle(ctx context.Context, args BundleArgs) (m.Manifest, error) {
	cfg := args.Config
	if err := cfg.Validate(); err != nil {
		return m.Manifest{}, err
	}

	depDirs, err := w.Extract(ctx, args.Dependencies, cfg.DependencyScope, cfg.ExtractDirectory)
	if err != nil {
		return m.Manifest{}, fmt.Errorf("extract dependencies: %w", err)
	}

	roots := w.roots(args, depDirs)

	manifest, err := w.Bundle(ctx, args.Goal.Name, cfg, w.CollectRoots(roots...))
	if err != nil {
		return m.Manifest{}, fmt.Errorf("bundle %s: %w", args.Goal.Name, err)
	}

	if err := w.SaveManifest(cfg.OutputPath(), manifest); err != nil {
		return m.Manifest{}, fmt.Errorf("save manifest: %w", err)
	}

	return manifest, nil
}

// roots orders dependency directories before the goal's project directories.
func (w *workflow) roots(args BundleArgs, depDirs []m.Path) []m.Root {
	roots := make([]m.Root, 0, len(depDirs)+2)
	for _, dir := range depDirs {
		roots = append(roots, m.Root{Path: dir, Origin: m.OriginDependency})
	}

	return append(roots, args.Goal.ProjectRoots(args.Project)...)
}

// plannedRoots returns the roots Run would use, based on the current extract
// directory contents instead of extracting again.
func (w *workflow) plannedRoots(args BundleArgs) []m.Root {
	targets := w.Targets(args.Dependencies, args.Config.DependencyScope, args.Config.ExtractDirectory)

	depDirs := make([]m.Path, 0, len(targets))
	for _, target := range targets {
		depDirs = append(depDirs, target.Dir)
	}

	return w.roots(args, depDirs)
}

func (w *workflow) List(ctx context.Context, args BundleArgs) error {
	if err := args.Config.Validate(); err != nil {
		return err
	}

	var entries []m.Entry

	for entry := range w.CollectRoots(w.plannedRoots(args)...) {
		if err := ctx.Err(); err != nil {
			return err
		}

		if Bundleable(args.Config, entry) {
			entries = append(entries, entry)
		}
	}

	return w.DisplayEntries(ctx, args.Goal.Name, entries)
}

func (w *workflow) Verify(ctx context.Context, args BundleArgs) error {
	cfg := args.Config
	if err := cfg.Validate(); err != nil {
		return err
	}

	output := cfg.OutputPath()
	result := controller.VerifyResult{Goal: args.Goal.Name, Output: output}

	saved, err := w.LoadManifest(output)
	if err != nil {
		slog.Info("no manifest for bundle", "path", output, "error", err)
		result.Diff = fmt.Sprintf("no manifest: %v\n", err)

		return w.stale(ctx, result)
	}

	expected, err := w.Plan(ctx, args.Goal.Name, cfg, w.CollectRoots(w.plannedRoots(args)...))
	if err != nil {
		return fmt.Errorf("plan %s: %w", args.Goal.Name, err)
	}

	actualHash, err := w.HashFile(output)
	if err != nil {
		result.Diff = fmt.Sprintf("bundle unreadable: %v\n", err)
		return w.stale(ctx, result)
	}

	diff, err := w.manifestDiff(saved, expected)
	if err != nil {
		return err
	}

	if actualHash != saved.SHA256 {
		diff = fmt.Sprintf("bundle content changed since it was written (sha256 %s, manifest %s)\n", actualHash, saved.SHA256) + diff
	}

	if diff != "" {
		result.Diff = diff
		return w.stale(ctx, result)
	}

	result.UpToDate = true

	return w.DisplayVerify(ctx, result)
}

func (w *workflow) stale(ctx context.Context, result controller.VerifyResult) error {
	if err := w.DisplayVerify(ctx, result); err != nil {
		return err
	}

	return fmt.Errorf("%w: %s", ErrBundleStale, result.Output)
}

// manifestDiff returns a unified diff of the parts of two manifests that
// depend on bundle inputs. It is empty when they match.
func (w *workflow) manifestDiff(saved, expected m.Manifest) (string, error) {
	normalize := func(manifest m.Manifest) m.Manifest {
		manifest.GeneratedAt = time.Time{}
		return manifest
	}

	savedText, err := w.EncodeManifest(normalize(saved))
	if err != nil {
		return "", err
	}

	expectedText, err := w.EncodeManifest(normalize(expected))
	if err != nil {
		return "", err
	}

	if string(savedText) == string(expectedText) {
		return "", nil
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(savedText)),
		B:        difflib.SplitLines(string(expectedText)),
		FromFile: "written",
		ToFile:   "expected",
		Context:  2,
	})
}

func (w *workflow) Watch(ctx context.Context, args BundleArgs) error {
	cfg := args.Config
	if err := cfg.Validate(); err != nil {
		return err
	}

	watched := make([]m.Path, 0, 2)
	for _, root := range args.Goal.ProjectRoots(args.Project) {
		watched = append(watched, root.Path)
	}

	ctx = w.StartWatch(ctx, args.Goal.Name, watched)
	defer w.StopWatch(ctx)

	if err := w.Run(ctx, args); err != nil {
		w.DisplayError(ctx, err)
	}

	err := w.ChangeWatcher.Watch(ctx, watched, func(ctx context.Context, changed []m.Path) error {
		relevant := slices.DeleteFunc(slices.Clone(changed), func(path m.Path) bool {
			return isBundleArtifact(cfg, string(path)) || withinDir(string(cfg.ExtractDirectory), string(path))
		})
		if len(relevant) == 0 {
			return nil
		}

		w.DisplayWatchEvent(ctx, relevant)

		if err := w.Run(ctx, args); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}

			slog.Warn("rebundle failed", "goal", args.Goal.Name, "error", err)
			w.DisplayError(ctx, err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	return nil
}
