package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kozaktomas/face-console/internal/announce"
	"github.com/kozaktomas/face-console/internal/appliance"
	"github.com/kozaktomas/face-console/internal/config"
	"github.com/kozaktomas/face-console/internal/constants"
	"github.com/kozaktomas/face-console/internal/recognition"
	"github.com/spf13/cobra"
)

var simpleCmd = &cobra.Command{
	Use:   "simple",
	Short: "Single-frame recognition and enrollment",
	Long: `Simple mode recognizes or enrolls from a single camera frame, without
the multi-pose flow. Its recognize reply also carries the detected face crop.`,
}

var simpleRecognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Recognize a face from the current frame",
	Long: `Recognize a face from the current frame.

Examples:
  face-console simple recognize
  face-console simple recognize --save-face face.jpg`,
	Args: cobra.NoArgs,
	RunE: runSimpleRecognize,
}

var simpleEnrollCmd = &cobra.Command{
	Use:   "enroll <name>",
	Short: "Enroll a user from the current frame",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimpleEnroll,
}

var simpleStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the simple-mode status",
	Args:  cobra.NoArgs,
	RunE:  runSimpleStatus,
}

func init() {
	rootCmd.AddCommand(simpleCmd)
	simpleCmd.AddCommand(simpleRecognizeCmd)
	simpleCmd.AddCommand(simpleEnrollCmd)
	simpleCmd.AddCommand(simpleStatusCmd)

	addOutputFlag(simpleRecognizeCmd)
	simpleRecognizeCmd.Flags().String("save-face", "", "Write the detected face crop to this JPEG file")
	simpleRecognizeCmd.Flags().Int("face-size", constants.FaceThumbnailSize, "Maximum width or height of the saved face crop")

	addOutputFlag(simpleStatusCmd)
	simpleStatusCmd.Flags().Bool("watch", false, "Keep polling and print changes")
	simpleStatusCmd.Flags().Duration("interval", 0, "Poll interval for --watch (defaults to POLL_INTERVAL)")
}

func runSimpleRecognize(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	savePath := mustGetString(cmd, "save-face")
	faceSize := mustGetInt(cmd, "face-size")

	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	client, err := newAppliance(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	journal, closeJournal, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeJournal()

	status, err := client.SimpleStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get simple status: %w", err)
	}

	announcer, err := announce.New(cfg.Announce, logger)
	if err != nil {
		return fmt.Errorf("failed to set up announcer: %w", err)
	}

	trigger := recognition.NewTrigger(client, journal, announcer, logger)
	trigger.SetCameraActive(status.CameraActive)

	result, err := trigger.SimpleRecognize(ctx)
	if err != nil {
		return err
	}

	switch {
	case savePath == "":
	case result.FaceImage == "":
		logger.Warn("no face crop in the reply, nothing saved")
	default:
		if err := recognition.SaveFaceThumbnail(savePath, result.FaceImage, faceSize); err != nil {
			return err
		}
		logger.Info("saved face crop", "path", savePath)
	}

	return printResult(format, result)
}

func runSimpleEnroll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	client, err := newAppliance(cfg)
	if err != nil {
		return err
	}

	trigger := recognition.NewTrigger(client, nil, nil, newLogger(cfg.LogLevel))
	msg, err := trigger.SimpleEnroll(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printMessage(msg, fmt.Sprintf("Enrolled %s.", strings.TrimSpace(args[0])))
	return nil
}

func runSimpleStatus(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	watch := mustGetBool(cmd, "watch")

	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	client, err := newAppliance(cfg)
	if err != nil {
		return err
	}

	if !watch {
		status, err := client.SimpleStatus(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get simple status: %w", err)
		}
		return printSimpleStatus(format, status)
	}

	interval := mustGetDuration(cmd, "interval")
	if interval <= 0 {
		interval = cfg.Poller.Interval
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last string
	for {
		status, err := client.SimpleStatus(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			logger.Warn("simple status poll failed", "error", err)
		case err == nil:
			line := fmt.Sprintf("camera %s, users: %s", onOff(status.CameraActive), strings.Join(status.Users, ", "))
			if line != last {
				fmt.Printf("%s %s\n", time.Now().Format(time.TimeOnly), line)
				last = line
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func printSimpleStatus(format string, status *appliance.SimpleStatus) error {
	return printOutput(format, status, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Camera:\t%s\n", onOff(status.CameraActive))
		fmt.Fprintf(w, "Users:\t%d\n", len(status.Users))
		for _, name := range status.Users {
			fmt.Fprintf(w, "\t%s\n", name)
		}
	})
}
