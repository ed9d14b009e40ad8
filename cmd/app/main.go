package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"EMAScan/internal/di"
	"EMAScan/internal/domain/models"
	"EMAScan/pkg/config"
)

var (
	configPath string
	cfg        *config.Config
)

// rootCmd is the base command for the EMAScan CLI
var rootCmd = &cobra.Command{
	Use:   "emascan",
	Short: "EMA50 market scanner dashboard",
	Long: `EMAScan drives a remote EMA50 analysis service, classifies the
results across timeframes and serves them as a local dashboard API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadWithEnv(configPath)
		if err != nil {
			return fmt.Errorf("config load failed: %w", err)
		}
		cfg = c
		return nil
	},
}

// serveCmd runs the dashboard API with its background workers
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard API, status poller and price feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := di.InitializeApp(cfg)
		if err != nil {
			return fmt.Errorf("app initialization failed: %w", err)
		}
		defer cleanup()
		return app.Run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")
	rootCmd.AddCommand(serveCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var se *models.ScanError
		if errors.As(err, &se) {
			fmt.Fprintln(os.Stderr, se.UserMessage())
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
