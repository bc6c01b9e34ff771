// Package cmd provides the root command and CLI setup for kjsbundle.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"kjsbundle.dev/pkg/kjsbundle/internal/adapter"
	"kjsbundle.dev/pkg/kjsbundle/internal/controller"
	"kjsbundle.dev/pkg/kjsbundle/internal/domain"
)

var fsAdapter adapter.SourceFSAdapter
var manifestStore adapter.ManifestStore
var changeWatcher adapter.ChangeWatcher
var collector domain.Collector
var extractor domain.Extractor
var bundler domain.Bundler
var workflow domain.Workflow
var ui controller.UI

var (
	artifactIDFlag     string
	buildDirFlag       string
	outputDirFlag      string
	testOutputDirFlag  string
	extractDirFlag     string
	bundleDirFlag      string
	bundleFilenameFlag string
	includeFlag        []string
	dependencyFlag     []string
	logFileFlag        string
	verboseFlag        bool
)

func init() {
	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	manifestStore = adapter.NewManifestStore(fsAdapter.Fs())
	changeWatcher = adapter.NewChangeWatcher(isLogFile)
	collector = domain.NewCollector(fsAdapter)
	extractor = domain.NewExtractor(fsAdapter)
	bundler = domain.NewBundler(fsAdapter)
	workflow = domain.NewWorkflow(
		fsAdapter,
		manifestStore,
		changeWatcher,
		ui,
		collector,
		extractor,
		bundler,
	)
}

const rootLongDescription = `kjsbundle concatenates the compiled JavaScript output of a project into a
single bundle file.

Dependency archives (jar/zip) listed in kjsbundle.yaml are unpacked first and
bundled ahead of the project output. Files are concatenated in directory walk
order; there is no module resolution, tree-shaking or source map support.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kjsbundle",
		Short:         "Bundle compiled JavaScript output",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringVar(&artifactIDFlag, artifactIDFlagName, viper.GetString(artifactIDKey), "project artifact id (default: name of the working directory)")
	bindFlagToConfig(flags.Lookup(artifactIDFlagName), artifactIDKey)

	flags.StringVar(&buildDirFlag, buildDirFlagName, viper.GetString(buildDirKey), "project build directory")
	bindFlagToConfig(flags.Lookup(buildDirFlagName), buildDirKey)

	flags.StringVar(&outputDirFlag, outputDirFlagName, viper.GetString(outputDirKey), "compiled main output directory")
	bindFlagToConfig(flags.Lookup(outputDirFlagName), outputDirKey)

	flags.StringVar(&testOutputDirFlag, testOutputDirFlagName, viper.GetString(testOutputDirKey), "compiled test output directory")
	bindFlagToConfig(flags.Lookup(testOutputDirFlagName), testOutputDirKey)

	flags.StringVar(&extractDirFlag, extractDirFlagName, viper.GetString(extractDirKey), "directory dependency archives are unpacked into (default: per goal)")
	bindFlagToConfig(flags.Lookup(extractDirFlagName), extractDirKey)

	flags.StringVar(&bundleDirFlag, bundleDirFlagName, viper.GetString(bundleDirKey), "directory the bundle is written to (default: per goal)")
	bindFlagToConfig(flags.Lookup(bundleDirFlagName), bundleDirKey)

	flags.StringVar(&bundleFilenameFlag, bundleFilenameFlagName, viper.GetString(bundleFilenameKey), "bundle file name (default: per goal)")
	bindFlagToConfig(flags.Lookup(bundleFilenameFlagName), bundleFilenameKey)

	flags.StringArrayVar(&includeFlag, includeFlagName, viper.GetStringSlice(includeKey), "only bundle files with this extension (can be repeated)")
	bindFlagToConfig(flags.Lookup(includeFlagName), includeKey)

	flags.StringArrayVarP(&dependencyFlag, dependencyFlagName, "d", nil, "dependency archive as [scope:]path, added to configured dependencies (can be repeated)")

	flags.StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(flags.Lookup(logFileFlagName), logFilenameKey)

	flags.BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(flags.Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}
