package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a kjsbundle.yaml configuration file",
		Long: `Create a kjsbundle.yaml in the current working directory from the current
settings. The artifact id defaults to the directory name and an empty
dependencies list is written for the archives to bundle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			if err := writeInitialConfig(targetPath, force); err != nil {
				return err
			}

			cmd.Printf("Wrote %s\n", targetPath)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing configuration file")

	return cmd
}

// writeInitialConfig snapshots the global settings into a separate viper
// instance so filling in the artifact id leaves the running config untouched.
func writeInitialConfig(targetPath string, force bool) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for _, key := range viper.AllKeys() {
		v.Set(key, viper.Get(key))
	}

	if strings.TrimSpace(v.GetString(artifactIDKey)) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve artifact id: %w", err)
		}

		v.Set(artifactIDKey, filepath.Base(wd))
	}

	write := v.SafeWriteConfigAs
	if force {
		write = v.WriteConfigAs
	}

	if err := write(targetPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
