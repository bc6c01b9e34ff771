package cmd

import (
	"github.com/spf13/cobra"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	var goalName string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the files a goal would bundle",
		Long: `List the files a goal would bundle, in bundle order, without writing anything.
Dependencies are listed from the extract directory as left by the last run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := goalArgs(goalName)
			if err != nil {
				return err
			}

			return workflow.List(cmd.Context(), args)
		},
	}

	addGoalFlag(cmd, &goalName)

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
