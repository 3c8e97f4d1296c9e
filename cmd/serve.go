package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-console/internal/announce"
	"github.com/kozaktomas/face-console/internal/config"
	"github.com/kozaktomas/face-console/internal/constants"
	"github.com/kozaktomas/face-console/internal/directory"
	"github.com/kozaktomas/face-console/internal/enrollment"
	"github.com/kozaktomas/face-console/internal/poller"
	"github.com/kozaktomas/face-console/internal/recognition"
	"github.com/kozaktomas/face-console/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web console",
	Long: `Start the Face Console web server.
The server polls the appliance in the background, announces new
recognitions and serves the browser console with live status updates,
camera control, recognition, enrollment and user management.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to (overrides WEB_HOST)")
}

// resolveServeHostPort applies --port and --host when they were given explicitly.
func resolveServeHostPort(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Web.Port = mustGetInt(cmd, "port")
	}
	if cmd.Flags().Changed("host") {
		cfg.Web.Host = mustGetString(cmd, "host")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	resolveServeHostPort(cmd, cfg)
	logger := newLogger(cfg.LogLevel)

	client, err := newAppliance(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	if cfg.Database.URL != "" {
		fmt.Printf("Connecting to PostgreSQL database...\n")
	}
	journal, closeJournal, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeJournal()

	announcer, err := announce.New(cfg.Announce, logger)
	if err != nil {
		return fmt.Errorf("failed to set up announcer: %w", err)
	}

	speech := announce.NewQueue(announcer, constants.AnnounceQueueSize, logger)
	defer speech.Close()

	trigger := recognition.NewTrigger(client, journal, speech, logger)
	statusPoller := poller.New(client, poller.Options{
		Interval:      cfg.Poller.Interval,
		AnnounceReset: cfg.Poller.AnnounceReset,
		Announcer:     speech,
		Journal:       journal,
		Logger:        logger,
		OnSnapshot: func(s poller.Snapshot) {
			trigger.SetCameraActive(s.Status.CameraActive)
		},
	})
	users := directory.New(client, logger, func(entries []directory.Entry) {
		statusPoller.Broadcast(poller.Event{Type: poller.EventUsers, Data: entries})
	})
	session := enrollment.NewSession(client, enrollment.Options{
		OnComplete: func(ctx context.Context, name string) {
			logger.InfoContext(ctx, "enrollment complete", "name", name)
			if _, err := users.Refresh(ctx); err != nil {
				logger.WarnContext(ctx, "user refresh after enrollment failed", "error", err)
			}
			if err := statusPoller.Refresh(ctx); err != nil {
				logger.WarnContext(ctx, "status refresh after enrollment failed", "error", err)
			}
		},
		OnChange: func(s enrollment.Snapshot) {
			statusPoller.Broadcast(poller.Event{Type: poller.EventEnrollment, Data: s})
		},
	})

	server, err := web.NewServer(cfg, web.Services{
		Appliance:  client,
		Poller:     statusPoller,
		Trigger:    trigger,
		Directory:  users,
		Enrollment: session,
		Journal:    journal,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	statusPoller.Start(ctx)
	defer statusPoller.Stop()

	go func() {
		<-ctx.Done()
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Console on http://%s:%d (appliance %s)\n", cfg.Web.Host, cfg.Web.Port, cfg.Appliance.URL)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
