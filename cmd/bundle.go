package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"kjsbundle.dev/pkg/kjsbundle/internal/domain"
)

// testBundleCmd represents the test-bundle command.
var testBundleCmd = newGoalCmd(domain.TestBundleGoal)

// bundleCmd represents the bundle command.
var bundleCmd = newGoalCmd(domain.BundleGoal)

func newGoalCmd(goal domain.Goal) *cobra.Command {
	return &cobra.Command{
		Use:   goal.Name,
		Short: goal.Description,
		Long: goal.Description + `.

Defaults:
  extract directory  ` + goal.ExtractDirectory + `
  output directory   ` + goal.OutputDirectory + `
  output filename    ` + goal.OutputFilename + `
  dependency scope   ` + string(goal.Scope),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := resolveBundleArgs(goal)
			if err != nil {
				return err
			}

			return workflow.Run(cmd.Context(), args)
		},
	}
}

func init() {
	rootCmd.AddCommand(testBundleCmd)
	rootCmd.AddCommand(bundleCmd)
}

// addGoalFlag registers --goal on commands that operate on a goal's bundle.
func addGoalFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, goalFlagName, "g", domain.TestBundleGoal.Name, "goal whose bundle to use ("+joinGoalNames()+")")
}

func joinGoalNames() string {
	return strings.Join(domain.GoalNames(), ", ")
}

// goalArgs resolves the goal selected by --goal into bundle args.
func goalArgs(goalName string) (domain.BundleArgs, error) {
	goal, err := domain.LookupGoal(goalName)
	if err != nil {
		return domain.BundleArgs{}, err
	}

	return resolveBundleArgs(goal)
}
