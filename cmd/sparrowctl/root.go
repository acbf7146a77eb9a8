// Root command for the sparrowctl CLI.
package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/evertheylen/sparrow/internal/paths"
	"github.com/evertheylen/sparrow/pkg/sparrow"
	"github.com/evertheylen/sparrow/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDatabase  string
	flagModel     string
	flagVerbose   bool
)

// Values loaded from config.yaml. Set by PersistentPreRunE so all
// subcommands can use them.
var (
	configDriver   string
	configDatabase string
	configModel    string
	configPoolSize int
)

// logger is the process-wide logger, built by PersistentPreRunE.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:     "sparrowctl",
	Short:   "Sparrowctl manages sparrow entity databases",
	Version: sparrow.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configDriver = cfg.GetString(cfgKeyDriver)
		configDatabase = cfg.GetString(cfgKeyDatabase)
		configModel = cfg.GetString(cfgKeyModel)
		configPoolSize = cfg.GetInt(cfgKeyPoolSize)

		logger, err = newLogger(flagVerbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync() //nolint:errcheck // stderr sync failure is not actionable
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDatabase, "database", "", "database file (default: $(CWD)/sparrow.db)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "entity model file (yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(dropCmd)
}

// newLogger builds the CLI logger; debug level when verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// resolveConfigDir returns the configuration directory following the
// precedence chain: --config-dir flag > SPARROW_CONFIG_DIR env > default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

// resolveDatabase returns the database path following the precedence
// chain: --database flag > config.yaml database > SPARROW_DATABASE env >
// default $(CWD)/sparrow.db.
func resolveDatabase() (string, error) {
	return paths.ResolveDatabase(flagDatabase, configDatabase)
}

// resolveModel returns the model file path: --model flag > config.yaml
// model. There is no default; commands that need a model fail without
// one.
func resolveModel() (string, bool) {
	if flagModel != "" {
		return flagModel, true
	}
	if configModel != "" {
		return configModel, true
	}
	return "", false
}

// storageConfig builds the executor config from the resolved database
// path and the loaded config values.
func storageConfig() (types.Config, error) {
	dsn, err := resolveDatabase()
	if err != nil {
		return types.Config{}, err
	}
	return types.Config{
		Driver:   configDriver,
		DSN:      dsn,
		PoolSize: configPoolSize,
	}, nil
}
