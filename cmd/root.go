// Package cmd implements the gbsdctl command-line interface.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Cartesian-School/gbsd/logging"
)

// Version information, set at build time via -ldflags.
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

var (
	globalLog       string
	globalLogFormat string
	globalDebug     bool
)

// rootCmd is the base command for gbsdctl.
var rootCmd = &cobra.Command{
	Use:   "gbsdctl",
	Short: "Boot and drive a gbsd kernel core",
	Long: `gbsdctl boots an in-process gbsd kernel core: the object store,
init_server and the bootstrap services it starts (log_server,
scheduler_server, vfs_server, ext4_server, netstack_server), and an
interactive console for issuing raw syscalls and inspecting kernel state.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetContext returns a context that cancels on SIGINT/SIGTERM, so booting
// the kernel from a terminal shuts its server goroutines down cleanly on
// Ctrl-C.
func GetContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalLog, "log", "", "set the log file path")
	rootCmd.PersistentFlags().StringVar(&globalLogFormat, "log-format", "text", "set the format for log output (text or json)")
	rootCmd.PersistentFlags().BoolVar(&globalDebug, "debug", false, "enable debug logging")
}

func setupLogging() {
	logOutput := os.Stderr
	if globalLog != "" {
		f, err := os.OpenFile(globalLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err == nil {
			logOutput = f
		}
	}

	logLevel := slog.LevelInfo
	if globalDebug {
		logLevel = slog.LevelDebug
	}

	logger := logging.NewLogger(logging.Config{
		Level:  logLevel,
		Format: globalLogFormat,
		Output: logOutput,
	})
	logging.SetDefault(logger)
}
