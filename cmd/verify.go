package cmd

import (
	"github.com/spf13/cobra"
)

// verifyCmd represents the verify command.
var verifyCmd = newVerifyCmd()

func newVerifyCmd() *cobra.Command {
	var goalName string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that a bundle matches its inputs",
		Long: `Compare the bundle written by the last run with what its inputs would produce now.
Exits non-zero and prints a diff of the bundle manifests when the bundle is stale.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := goalArgs(goalName)
			if err != nil {
				return err
			}

			return workflow.Verify(cmd.Context(), args)
		},
	}

	addGoalFlag(cmd, &goalName)

	return cmd
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
