package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangsam/mri/internal/contract"
	"github.com/huangsam/mri/internal/iostore"
	"github.com/huangsam/mri/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "mri",
	Short: "Track the technical-debt health of a codebase sprint by sprint.",
	Long: `MRI turns per-file metrics (complexity, churn, size) into risk scores and
stores one immutable health snapshot per repository and sprint, so that you can
travel back in time and watch hotspots appear and get resolved.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Check if a specific config file is provided
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Set config file name and paths
		viper.SetConfigName(".mri") // Name of config file (without extension)
		viper.SetConfigType("yaml") // We'll use YAML format
		viper.AddConfigPath(".")    // Look in the current directory
		viper.AddConfigPath("$HOME")
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("MRI")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("complexity-threshold", schema.DefaultComplexityThreshold)
	viper.SetDefault("churn-window", schema.DefaultChurnWindowSize)
	viper.SetDefault("size-saturation", schema.DefaultSizeSaturationLOC)
	viper.SetDefault("top-k", schema.DefaultTopK)
	viper.SetDefault("history-limit", schema.DefaultHistoryLimit)
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("lease-ttl", contract.DefaultLeaseTTL.String())
	viper.SetDefault("backend", schema.SQLiteBackend)
	viper.SetDefault("db-connect", "")
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("color", "yes")
	viper.SetDefault("target-version", -1)
}

// loadConfig merges defaults, file, env and flags, then validates them into cfg.
func loadConfig() error {
	// 1. Read config file.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing.
	return contract.ProcessAndValidate(cfg, input)
}

// sharedSetup validates the configuration and opens the snapshot store.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	if err := iostore.InitStores(cfg.Backend, cfg.DBConnect); err != nil {
		return fmt.Errorf("failed to initialize snapshot store: %w", err)
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// configOnlySetup validates the configuration without touching any store.
// It serves commands that work on a fresh or absent database.
func configOnlySetup(_ *cobra.Command, _ []string) error {
	return loadConfig()
}

// ExecuteContext runs the root command with a cancellable context,
// so that an interrupted build never persists a partial snapshot.
func ExecuteContext(ctx context.Context) error {
	rootCtx = ctx
	return rootCmd.ExecuteContext(ctx)
}
