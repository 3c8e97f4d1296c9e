package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kozaktomas/face-console/internal/config"
	"github.com/kozaktomas/face-console/internal/enrollment"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <name>",
	Short: "Enroll a user through the multi-pose capture flow",
	Long: `Enroll a new user. The appliance asks for a sequence of head poses
(front, left, right, up, down); each pose is captured when you press Enter.
Press Ctrl+C to cancel the enrollment on the appliance.

Examples:
  # Capture each pose on Enter
  face-console enroll alice

  # Capture automatically every 3 seconds
  face-console enroll alice --auto --interval 3s`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().Bool("auto", false, "Capture poses automatically instead of waiting for Enter")
	enrollCmd.Flags().Duration("interval", 2*time.Second, "Pause before each automatic capture")
	enrollCmd.Flags().Int("retries", 3, "Capture attempts per pose before giving up")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	auto := mustGetBool(cmd, "auto")
	interval := mustGetDuration(cmd, "interval")
	retries := max(mustGetInt(cmd, "retries"), 1)

	cfg := config.Load()
	client, err := newAppliance(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	session := enrollment.NewSession(client, enrollment.Options{})
	snap, err := session.Start(ctx, args[0])
	if err != nil {
		return err
	}
	if snap.Message != "" {
		fmt.Println(snap.Message)
	}

	bar := progressbar.NewOptions(snap.TotalPoses,
		progressbar.OptionSetDescription("Enrolling "+snap.UserName),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("poses"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	lines := readLines(ctx)
	failures := 0
	for snap.State == enrollment.StateActive {
		bar.Describe(fmt.Sprintf("Pose %s: %s", snap.Progress, snap.CurrentPose))

		if err := waitForCapture(ctx, lines, auto, interval); err != nil {
			return cancelEnrollment(session)
		}

		next, err := session.Capture(ctx)
		if ctx.Err() != nil {
			return cancelEnrollment(session)
		}
		if err != nil {
			if errors.Is(err, enrollment.ErrSessionLost) {
				return err
			}
			failures++
			fmt.Fprintf(os.Stderr, "\ncapture failed: %s\n", next.Message)
			if failures >= retries {
				_ = cancelEnrollment(session)
				return fmt.Errorf("giving up after %d failed captures: %w", failures, err)
			}
			continue
		}

		failures = 0
		snap = next
		if snap.State == enrollment.StateActive {
			_ = bar.Set(snap.PoseIndex)
		}
	}

	_ = bar.Finish()
	fmt.Println()
	printMessage(snap.Message, "Enrollment complete.")
	return nil
}

// readLines delivers stdin lines until ctx is done or stdin closes.
func readLines(ctx context.Context) <-chan struct{} {
	lines := make(chan struct{})
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// waitForCapture blocks until the next pose should be captured.
func waitForCapture(ctx context.Context, lines <-chan struct{}, auto bool, interval time.Duration) error {
	if auto {
		select {
		case <-time.After(interval):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	fmt.Print(" [Enter to capture]")
	select {
	case _, ok := <-lines:
		if !ok {
			return errors.New("stdin closed")
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cancelEnrollment drops the appliance-side enrollment after an interrupt.
func cancelEnrollment(session *enrollment.Session) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := session.Cancel(ctx); err != nil {
		return fmt.Errorf("enrollment interrupted, cancel failed: %w", err)
	}
	fmt.Println("\nEnrollment cancelled.")
	return nil
}
