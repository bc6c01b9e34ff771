package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "kjsbundle"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	artifactIDFlagName     = "artifact-id"
	buildDirFlagName       = "build-dir"
	outputDirFlagName      = "output-dir"
	testOutputDirFlagName  = "test-output-dir"
	extractDirFlagName     = "extract-dir"
	bundleDirFlagName      = "bundle-dir"
	bundleFilenameFlagName = "bundle-filename"
	includeFlagName        = "include"
	dependencyFlagName     = "dependency"
	logFileFlagName        = "log-file"
	verboseFlagName        = "verbose"
	goalFlagName           = "goal"

	artifactIDKey     = "project.artifact_id"
	buildDirKey       = "project.build_directory"
	outputDirKey      = "project.output_directory"
	testOutputDirKey  = "project.test_output_directory"
	extractDirKey     = "bundle.extract_directory"
	bundleDirKey      = "bundle.output_directory"
	bundleFilenameKey = "bundle.output_filename"
	includeKey        = "bundle.include"
	dependenciesKey   = "dependencies"

	defaultBuildDir      = "target"
	defaultOutputDir     = "${project.build.directory}/classes"
	defaultTestOutputDir = "${project.build.directory}/test-classes"

	envPrefix = "KJSBUNDLE"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".kjsbundle.log"
	defaultLogLevel      = "info"
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setConfigDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

func setConfigDefaults() {
	viper.SetDefault(configVersionKey, currentConfigVersion)

	viper.SetDefault(artifactIDKey, "")
	viper.SetDefault(buildDirKey, defaultBuildDir)
	viper.SetDefault(outputDirKey, defaultOutputDir)
	viper.SetDefault(testOutputDirKey, defaultTestOutputDir)

	// Empty bundle values fall back to the defaults of the goal being run.
	viper.SetDefault(extractDirKey, "")
	viper.SetDefault(bundleDirKey, "")
	viper.SetDefault(bundleFilenameKey, "")
	viper.SetDefault(includeKey, []string{})
	viper.SetDefault(dependenciesKey, []map[string]string{})

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at the configured level; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}

// isLogFile reports whether path is the configured log file or one of its
// rotated backups. Watch mode ignores them so logging never triggers a rebuild.
func isLogFile(path string) bool {
	logPath := strings.TrimSpace(viper.GetString(logFilenameKey))
	if logPath == "" {
		logPath = defaultLogFilename
	}

	logAbs, err := filepath.Abs(logPath)
	if err != nil {
		return false
	}

	target, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	if target == logAbs {
		return true
	}

	// lumberjack names backups <name>-<timestamp><ext>, optionally gzipped.
	base := filepath.Base(logAbs)
	backupPrefix := strings.TrimSuffix(base, filepath.Ext(base)) + "-"

	return filepath.Dir(target) == filepath.Dir(logAbs) &&
		strings.HasPrefix(filepath.Base(target), backupPrefix)
}
