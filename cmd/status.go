package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/kozaktomas/face-console/internal/announce"
	"github.com/kozaktomas/face-console/internal/appliance"
	"github.com/kozaktomas/face-console/internal/config"
	"github.com/kozaktomas/face-console/internal/constants"
	"github.com/kozaktomas/face-console/internal/poller"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the appliance status",
	Long: `Fetch the appliance status and the enrolled users once and print them.

Examples:
  face-console status
  face-console status -o yaml`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the appliance and announce new recognitions",
	Long: `Poll the appliance status at the configured interval (POLL_INTERVAL) and
announce every newly recognized identity. Announcements are logged and, when
ANNOUNCE_COMMAND is set, spoken through that command. Each announcement is
recorded in the recognition journal.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)

	addOutputFlag(statusCmd)
	watchCmd.Flags().Duration("interval", 0, "Poll interval (defaults to POLL_INTERVAL)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	cfg := config.Load()
	client, err := newAppliance(cfg)
	if err != nil {
		return err
	}

	p := poller.New(client, poller.Options{Logger: newLogger(cfg.LogLevel)})
	if err := p.Refresh(cmd.Context()); err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	snap := p.Snapshot()

	return printOutput(format, snap, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Camera:\t%s\n", onOff(snap.Status.CameraActive))
		fmt.Fprintf(w, "Recognition:\t%s\n", onOff(snap.Status.RecognitionActive))
		fmt.Fprintf(w, "Enrolled users:\t%d\n", snap.Status.EnrolledUserCount)
		fmt.Fprintf(w, "Last recognition:\t%s\n", describeRecognition(snap.Status.LastRecognition))
	})
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)

	client, err := newAppliance(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

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

	interval := mustGetDuration(cmd, "interval")
	if interval <= 0 {
		interval = cfg.Poller.Interval
	}

	var lastCamera *bool
	p := poller.New(client, poller.Options{
		Interval:      interval,
		AnnounceReset: cfg.Poller.AnnounceReset,
		Announcer:     speech,
		Journal:       journal,
		Logger:        logger,
		OnSnapshot: func(s poller.Snapshot) {
			if lastCamera == nil || *lastCamera != s.Status.CameraActive {
				active := s.Status.CameraActive
				lastCamera = &active
				fmt.Printf("%s camera %s, %d users enrolled\n",
					s.FetchedAt.Local().Format(time.TimeOnly), onOff(active), s.Status.EnrolledUserCount)
			}
		},
	})

	fmt.Printf("Watching %s every %s (Ctrl+C to stop)\n", cfg.Appliance.URL, interval)
	p.Run(ctx)
	fmt.Println("\nStopped.")
	return nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func describeRecognition(rec *appliance.Recognition) string {
	if rec == nil {
		return "none"
	}
	s := fmt.Sprintf("%s (%.1f%%)", rec.Identity, rec.Confidence.Percent())
	if rec.Timestamp != "" {
		s += " at " + rec.Timestamp
	}
	return s
}

// signalContext returns a context cancelled on Ctrl+C or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
