package cmd

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kjsbundle.dev/pkg/kjsbundle/internal/domain"
	domainmocks "kjsbundle.dev/pkg/kjsbundle/internal/domain/mocks"
	m "kjsbundle.dev/pkg/kjsbundle/internal/model"
)

func runWithMockWorkflow(t *testing.T, sub *cobra.Command, args ...string) (*domainmocks.MockWorkflow, func() error) {
	t.Helper()

	mockWorkflow := domainmocks.NewMockWorkflow(t)

	originalWorkflow := workflow
	workflow = mockWorkflow
	t.Cleanup(func() { workflow = originalWorkflow })

	cmd := newRootCmd()
	cmd.AddCommand(sub)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--log-file", filepath.Join(t.TempDir(), "test.log")))

	return mockWorkflow, cmd.Execute
}

func TestTestBundleCmd_Defaults(t *testing.T) {
	chdirTemp(t)

	mockWorkflow, execute := runWithMockWorkflow(t, newGoalCmd(domain.TestBundleGoal), "test-bundle", "--artifact-id", "app")

	mockWorkflow.On("Run", mock.Anything, mock.MatchedBy(func(args domain.BundleArgs) bool {
		return args.Goal.Name == "test-bundle" &&
			args.Project.ArtifactID == "app" &&
			args.Project.OutputDirectory == m.Path("target/classes") &&
			args.Project.TestOutputDirectory == m.Path("target/test-classes") &&
			args.Config.OutputDirectory == m.Path("target/test-classes") &&
			args.Config.OutputFilename == "app-tests.bundle.js" &&
			args.Config.ExtractDirectory == m.Path("target/kotlin-js-bundle/test-dependencies") &&
			args.Config.DependencyScope == m.ScopeTest &&
			len(args.Dependencies) == 0
	})).Return(nil).Once()

	require.NoError(t, execute())
}

func TestTestBundleCmd_ArtifactIDFromWorkingDirectory(t *testing.T) {
	dir := chdirTemp(t)

	mockWorkflow, execute := runWithMockWorkflow(t, newGoalCmd(domain.TestBundleGoal), "test-bundle")

	mockWorkflow.On("Run", mock.Anything, mock.MatchedBy(func(args domain.BundleArgs) bool {
		return args.Config.OutputFilename == filepath.Base(dir)+"-tests.bundle.js"
	})).Return(nil).Once()

	require.NoError(t, execute())
}

func TestTestBundleCmd_Overrides(t *testing.T) {
	chdirTemp(t)

	mockWorkflow, execute := runWithMockWorkflow(t, newGoalCmd(domain.TestBundleGoal),
		"test-bundle",
		"--artifact-id", "app",
		"--build-dir", "build",
		"--bundle-dir", "${project.build.directory}/js",
		"--bundle-filename", "all.js",
		"--include", ".js",
		"-d", "test:libs/kotlin-test.jar",
		"-d", "libs/kotlin.jar",
	)

	mockWorkflow.On("Run", mock.Anything, mock.MatchedBy(func(args domain.BundleArgs) bool {
		return args.Project.OutputDirectory == m.Path("build/classes") &&
			args.Config.OutputDirectory == m.Path("build/js") &&
			args.Config.OutputFilename == "all.js" &&
			assert.ObjectsAreEqual([]string{".js"}, args.Config.Include) &&
			assert.ObjectsAreEqual([]m.Artifact{
				{Scope: m.ScopeTest, Path: "libs/kotlin-test.jar"},
				{Scope: m.ScopeCompile, Path: "libs/kotlin.jar"},
			}, args.Dependencies)
	})).Return(nil).Once()

	require.NoError(t, execute())
}

func TestTestBundleCmd_InvalidFilename(t *testing.T) {
	chdirTemp(t)

	_, execute := runWithMockWorkflow(t, newGoalCmd(domain.TestBundleGoal),
		"test-bundle", "--artifact-id", "app", "--bundle-filename", "js/all.js")

	require.ErrorIs(t, execute(), m.ErrInvalidConfig)
}

func TestTestBundleCmd_WorkflowError(t *testing.T) {
	chdirTemp(t)

	mockWorkflow, execute := runWithMockWorkflow(t, newGoalCmd(domain.TestBundleGoal), "test-bundle", "--artifact-id", "app")

	failure := errors.New("disk full")
	mockWorkflow.On("Run", mock.Anything, mock.Anything).Return(failure).Once()

	require.ErrorIs(t, execute(), failure)
}

func TestTestBundleCmd_RejectsArgs(t *testing.T) {
	chdirTemp(t)

	_, execute := runWithMockWorkflow(t, newGoalCmd(domain.TestBundleGoal), "test-bundle", "extra")
	require.Error(t, execute())
}

func TestBundleCmd_Defaults(t *testing.T) {
	chdirTemp(t)

	mockWorkflow, execute := runWithMockWorkflow(t, newGoalCmd(domain.BundleGoal), "bundle", "--artifact-id", "app")

	mockWorkflow.On("Run", mock.Anything, mock.MatchedBy(func(args domain.BundleArgs) bool {
		return args.Goal.Name == "bundle" &&
			args.Config.OutputDirectory == m.Path("target") &&
			args.Config.OutputFilename == "app.bundle.js" &&
			args.Config.DependencyScope == m.ScopeCompile
	})).Return(nil).Once()

	require.NoError(t, execute())
}

func TestGoalCommands_SelectGoal(t *testing.T) {
	tests := []struct {
		name   string
		sub    func() *cobra.Command
		method string
	}{
		{"list", newListCmd, "List"},
		{"verify", newVerifyCmd, "Verify"},
		{"watch", newWatchCmd, "Watch"},
	}

	for _, tt := range tests {
		t.Run(tt.name+" default goal", func(t *testing.T) {
			chdirTemp(t)

			mockWorkflow, execute := runWithMockWorkflow(t, tt.sub(), tt.name, "--artifact-id", "app")
			mockWorkflow.On(tt.method, mock.Anything, mock.MatchedBy(func(args domain.BundleArgs) bool {
				return args.Goal.Name == "test-bundle"
			})).Return(nil).Once()

			require.NoError(t, execute())
		})

		t.Run(tt.name+" bundle goal", func(t *testing.T) {
			chdirTemp(t)

			mockWorkflow, execute := runWithMockWorkflow(t, tt.sub(), tt.name, "--artifact-id", "app", "--goal", "bundle")
			mockWorkflow.On(tt.method, mock.Anything, mock.MatchedBy(func(args domain.BundleArgs) bool {
				return args.Goal.Name == "bundle"
			})).Return(nil).Once()

			require.NoError(t, execute())
		})

		t.Run(tt.name+" unknown goal", func(t *testing.T) {
			chdirTemp(t)

			_, execute := runWithMockWorkflow(t, tt.sub(), tt.name, "--goal", "package")
			require.ErrorIs(t, execute(), domain.ErrUnknownGoal)
		})
	}
}

func TestVerifyCmd_PropagatesStale(t *testing.T) {
	chdirTemp(t)

	mockWorkflow, execute := runWithMockWorkflow(t, newVerifyCmd(), "verify", "--artifact-id", "app")
	mockWorkflow.On("Verify", mock.Anything, mock.Anything).Return(domain.ErrBundleStale).Once()

	require.ErrorIs(t, execute(), domain.ErrBundleStale)
}
