package cmd

import (
	"github.com/spf13/cobra"
)

// watchCmd represents the watch command.
var watchCmd = newWatchCmd()

func newWatchCmd() *cobra.Command {
	var goalName string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebundle whenever project output changes",
		Long:  "Bundle once, then rebundle whenever files below the goal's project output directories change.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := goalArgs(goalName)
			if err != nil {
				return err
			}

			return workflow.Watch(cmd.Context(), args)
		},
	}

	addGoalFlag(cmd, &goalName)

	return cmd
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
