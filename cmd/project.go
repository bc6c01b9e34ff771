package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"kjsbundle.dev/pkg/kjsbundle/internal/domain"
	m "kjsbundle.dev/pkg/kjsbundle/internal/model"
)

// resolveProject builds the project descriptor from config, env and flags.
func resolveProject() (m.Project, error) {
	artifactID := strings.TrimSpace(viper.GetString(artifactIDKey))
	if artifactID == "" {
		wd, err := os.Getwd()
		if err != nil {
			return m.Project{}, fmt.Errorf("resolve artifact id: %w", err)
		}

		artifactID = filepath.Base(wd)
	}

	project := m.Project{ArtifactID: artifactID}
	project.BuildDirectory = m.Path(project.Interpolate(viper.GetString(buildDirKey)))
	project.OutputDirectory = m.Path(project.Interpolate(viper.GetString(outputDirKey)))
	project.TestOutputDirectory = m.Path(project.Interpolate(viper.GetString(testOutputDirKey)))

	return project, nil
}

// resolveDependencies merges configured dependencies with --dependency flags.
func resolveDependencies() ([]m.Artifact, error) {
	var artifacts []m.Artifact
	if err := viper.UnmarshalKey(dependenciesKey, &artifacts); err != nil {
		return nil, fmt.Errorf("read %s: %w", dependenciesKey, err)
	}

	for i, artifact := range artifacts {
		if artifact.Path.Empty() {
			return nil, fmt.Errorf("%s[%d] (%s): path is required", dependenciesKey, i, artifact.Coordinates())
		}

		scope, err := m.ParseScope(string(artifact.Scope))
		if err != nil {
			return nil, fmt.Errorf("%s[%d] (%s): %w", dependenciesKey, i, artifact.Coordinates(), err)
		}

		artifacts[i].Scope = scope
	}

	for _, value := range dependencyFlag {
		artifact, err := parseDependencyFlag(value)
		if err != nil {
			return nil, err
		}

		artifacts = append(artifacts, artifact)
	}

	return artifacts, nil
}

// parseDependencyFlag parses "[scope:]path". A prefix that is not a known
// scope is treated as part of the path.
func parseDependencyFlag(value string) (m.Artifact, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return m.Artifact{}, fmt.Errorf("--%s: empty value", dependencyFlagName)
	}

	path := value
	scope := m.ScopeCompile

	if prefix, rest, ok := strings.Cut(value, ":"); ok {
		if parsed, err := m.ParseScope(prefix); err == nil && prefix != "" {
			scope = parsed
			path = rest
		}
	}

	if strings.TrimSpace(path) == "" {
		return m.Artifact{}, fmt.Errorf("--%s %q: path is required", dependencyFlagName, value)
	}

	return m.Artifact{Scope: scope, Path: m.Path(path)}, nil
}

// resolveBundleArgs resolves everything a goal invocation needs. Goal
// templates such as ${project.artifactId} are expanded here so the domain
// only sees final paths.
func resolveBundleArgs(goal domain.Goal) (domain.BundleArgs, error) {
	project, err := resolveProject()
	if err != nil {
		return domain.BundleArgs{}, err
	}

	dependencies, err := resolveDependencies()
	if err != nil {
		return domain.BundleArgs{}, err
	}

	cfg := goal.Resolve(project, domain.Overrides{
		ExtractDirectory: m.Path(viper.GetString(extractDirKey)),
		OutputDirectory:  m.Path(viper.GetString(bundleDirKey)),
		OutputFilename:   viper.GetString(bundleFilenameKey),
		Include:          viper.GetStringSlice(includeKey),
	})

	if err := cfg.Validate(); err != nil {
		return domain.BundleArgs{}, err
	}

	return domain.BundleArgs{
		Goal:         goal,
		Project:      project,
		Config:       cfg,
		Dependencies: dependencies,
	}, nil
}
