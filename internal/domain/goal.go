package domain

import (
	"fmt"
	"sort"

	m "kjsbundle.dev/pkg/kjsbundle/internal/model"
)

// Goal names a bundle invocation and carries its defaults. Directory and file
// name defaults are templates expanded with model.Project.Interpolate.
type Goal struct {
	Name             string
	Description      string
	Scope            m.Scope
	ExtractDirectory string
	OutputDirectory  string
	OutputFilename   string
	// IncludeTestOutput adds the test output directory after the main one.
	IncludeTestOutput bool
}

// TestBundleGoal bundles main and test output together with test scoped dependencies.
var TestBundleGoal = Goal{
	Name:              "test-bundle",
	Description:       "Bundle main and test JavaScript output with test dependencies",
	Scope:             m.ScopeTest,
	ExtractDirectory:  "${project.build.directory}/kotlin-js-bundle/test-dependencies",
	OutputDirectory:   "${project.build.testOutputDirectory}",
	OutputFilename:    "${project.artifactId}-tests.bundle.js",
	IncludeTestOutput: true,
}

// BundleGoal bundles main output with compile scoped dependencies.
var BundleGoal = Goal{
	Name:             "bundle",
	Description:      "Bundle main JavaScript output with compile dependencies",
	Scope:            m.ScopeCompile,
	ExtractDirectory: "${project.build.directory}/kotlin-js-bundle/dependencies",
	OutputDirectory:  "${project.build.directory}",
	OutputFilename:   "${project.artifactId}.bundle.js",
}

var goals = map[string]Goal{
	TestBundleGoal.Name: TestBundleGoal,
	BundleGoal.Name:     BundleGoal,
}

// LookupGoal returns the goal registered under name.
func LookupGoal(name string) (Goal, error) {
	goal, ok := goals[name]
	if !ok {
		return Goal{}, fmt.Errorf("%w %q (known: %v)", ErrUnknownGoal, name, GoalNames())
	}

	return goal, nil
}

// GoalNames lists registered goal names in lexical order.
func GoalNames() []string {
	names := make([]string, 0, len(goals))
	for name := range goals {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ProjectRoots returns the project directories the goal collects, in bundle order.
func (g Goal) ProjectRoots(project m.Project) []m.Root {
	roots := []m.Root{{Path: project.OutputDirectory, Origin: m.OriginMain}}

	if g.IncludeTestOutput {
		roots = append(roots, m.Root{Path: project.TestOutputDirectory, Origin: m.OriginTest})
	}

	return roots
}

// Overrides holds explicitly configured values replacing goal defaults.
type Overrides struct {
	ExtractDirectory m.Path
	OutputDirectory  m.Path
	OutputFilename   string
	Include          []string
}

// Resolve expands the goal defaults for project and applies overrides.
// The dependency scope is always the goal's own.
func (g Goal) Resolve(project m.Project, overrides Overrides) m.Config {
	cfg := m.Config{
		ExtractDirectory: m.Path(project.Interpolate(g.ExtractDirectory)),
		OutputDirectory:  m.Path(project.Interpolate(g.OutputDirectory)),
		OutputFilename:   project.Interpolate(g.OutputFilename),
		DependencyScope:  g.Scope,
		Include:          overrides.Include,
	}

	if !overrides.ExtractDirectory.Empty() {
		cfg.ExtractDirectory = m.Path(project.Interpolate(string(overrides.ExtractDirectory)))
	}

	if !overrides.OutputDirectory.Empty() {
		cfg.OutputDirectory = m.Path(project.Interpolate(string(overrides.OutputDirectory)))
	}

	if overrides.OutputFilename != "" {
		cfg.OutputFilename = project.Interpolate(overrides.OutputFilename)
	}

	return cfg
}
