package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kozaktomas/face-console/internal/appliance"
	"github.com/kozaktomas/face-console/internal/config"
	"github.com/spf13/cobra"
)

var captureDir string

var rootCmd = &cobra.Command{
	Use:   "face-console",
	Short: "An operator console for a face-recognition appliance",
	Long: `Face Console drives a face-recognition appliance over its REST API.
It starts and stops the camera, triggers recognition, enrolls users through
the multi-pose capture flow, manages enrolled users and watches the
appliance status. The serve command runs the browser console.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture", "", "Directory to save API responses for testing")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// newLogger builds the process logger writing text records to stderr.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

// newAppliance creates the appliance client from configuration.
func newAppliance(cfg *config.Config) (*appliance.Appliance, error) {
	client, err := appliance.NewApplianceWithCapture(cfg.Appliance.URL, captureDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create appliance client: %w", err)
	}
	if cfg.Appliance.Timeout > 0 {
		client.SetTimeout(cfg.Appliance.Timeout)
	}
	return client, nil
}
