// ABOUTME: Root command for the lanes CLI
// ABOUTME: Loads configuration and logging before any subcommand runs
package cmd

import (
	"fmt"
	"os"

	"github.com/harperreed/lanes/internal/config"
	"github.com/harperreed/lanes/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config

	logLevel string
	logFile  string
	tickMs   int
	snap     float64
	headless bool
)

var rootCmd = &cobra.Command{
	Use:   "lanes",
	Short: "lanes is a multi-track timeline player.",
	Long: `lanes places audio clips on tracks along a shared timeline and plays
them back in sync. Sessions are saved as YAML project files and can be
driven from the terminal UI or remotely over the network.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		applyFlags(cmd)

		// the TUI owns the terminal, so it logs to the file only
		console := cmd.Name() != "tui"
		if err := logger.Init(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogFile,
			Console:    console,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}); err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		if cfg.EnvFileLoaded {
			logger.Debug("loaded .env")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (env LANES_LOG_LEVEL)")
	flags.StringVar(&logFile, "log-file", "", "log file path (env LANES_LOG_FILE)")
	flags.IntVar(&tickMs, "tick-ms", 0, "transport tick interval in milliseconds (env LANES_TICK_MS)")
	flags.Float64Var(&snap, "snap", -1, "drop snap grid in seconds, 0 disables (env LANES_SNAP_SECONDS)")
	flags.BoolVar(&headless, "headless", false, "play through silent virtual handles instead of the audio device")
}

// applyFlags lets explicitly set flags override the environment
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if flags.Changed("tick-ms") && tickMs > 0 {
		cfg.TickInterval = msDuration(tickMs)
	}
	if flags.Changed("snap") && snap >= 0 {
		cfg.SnapSeconds = snap
	}
	if flags.Changed("port") {
		cfg.Port = port
	}
	if flags.Changed("watch") {
		cfg.IngestDir = watchDir
	}
	if flags.Changed("no-mdns") {
		cfg.MDNS = !noMDNS
	}
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
