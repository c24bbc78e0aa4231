// Package cli provides the command-line interface for the scanner.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"vcpscan/internal/config"
	"vcpscan/internal/logging"
	"vcpscan/internal/store"
	"vcpscan/pkg/utils"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-08-01"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.DataStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize SQLite store for scan history
	dataStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, scan history will be unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", cfg.Database.Path).Msg("SQLite store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "vcpscan",
		Short: "Volatility contraction pattern scanner for daily stock bars",
		Long: `vcpscan detects volatility contraction patterns (VCP) in daily OHLCV data.

It finds successive pullbacks of decreasing depth, checks volume dry-up and
price range tightening, and scores how close a base is to its breakout pivot.
Bars are read from per-symbol CSV files; batch scans run across a universe
file and can be persisted for later review.

Use 'vcpscan help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Handle debug flag
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/vcpscan)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addAnalysisCommands(rootCmd, app)
	addHistoryCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

// addAnalysisCommands adds the pattern analysis commands.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newScanCmd(app))
}

// addHistoryCommands adds the stored-run browsing commands.
func addHistoryCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newHistoryCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("vcpscan v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			dir, _ := cmd.Flags().GetString("config")
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			if output.IsJSON() {
				output.JSON(map[string]string{"path": dir})
			} else {
				output.Println(dir)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a fresh configuration template",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			dir, _ := cmd.Flags().GetString("config")
			path, err := config.WriteTemplate(dir, "config")
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Success("✓ Configuration template written to %s", path)
			output.Dim("Edit the file, then run 'vcpscan config validate'.")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Pattern Configuration")
	output.Printf("  Contractions:     %d-%d\n", cfg.Pattern.MinContractions, cfg.Pattern.MaxContractions)
	output.Printf("  Depth Range:      %.1f%% min, %.1f%% first max\n", cfg.Pattern.MinDepthPct, cfg.Pattern.MaxFirstDepthPct)
	output.Printf("  Decrease Ratio:   %.2f\n", cfg.Pattern.DepthDecreaseRatio)
	output.Printf("  Swing Window:     %d bars (min spacing %d)\n", cfg.Pattern.SwingWindow, cfg.Pattern.MinSwingDistance)
	output.Printf("  Volume Dry-Up:    %.2f\n", cfg.Pattern.VolumeDryUpThreshold)
	output.Printf("  Range Tightening: %.2f\n", cfg.Pattern.RangeContractionThreshold)
	output.Printf("  Pivot Distance:   %.1f%%\n", cfg.Pattern.PivotDistanceThreshold)
	output.Println()

	output.Bold("Score Weights")
	output.Printf("  Contractions:      %.0f\n", cfg.Pattern.Weights.Contractions)
	output.Printf("  Depth Progression: %.0f\n", cfg.Pattern.Weights.DepthProgression)
	output.Printf("  Volume Dry-Up:     %.0f\n", cfg.Pattern.Weights.VolumeDryUp)
	output.Printf("  Range Tightening:  %.0f\n", cfg.Pattern.Weights.RangeTightening)
	output.Printf("  Pivot Proximity:   %.0f\n", cfg.Pattern.Weights.PivotProximity)
	output.Println()

	output.Bold("Scan Configuration")
	output.Printf("  Workers:          %d\n", cfg.Scan.Workers)
	output.Printf("  Min Score:        %.0f\n", cfg.Scan.MinScore)
	output.Printf("  Timeout:          %s\n", utils.FormatDuration(cfg.Scan.Timeout))
	output.Printf("  Require Uptrend:  %v\n", cfg.Scan.RequireUptrend)
	output.Println()

	output.Bold("Data")
	output.Printf("  Bars Directory:   %s\n", cfg.Data.BarsDir)
	output.Printf("  Universe:         %s\n", cfg.Data.Universe)
	output.Println()

	output.Bold("Database")
	output.Printf("  Path:             %s\n", cfg.Database.Path)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:            %s\n", cfg.Logging.Level)
	output.Printf("  Console:          %v\n", cfg.Logging.Console)
	output.Printf("  File:             %v\n", cfg.Logging.File)

	return nil
}
