package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/kozaktomas/face-console/internal/config"
	"github.com/kozaktomas/face-console/internal/recognition"
	"github.com/spf13/cobra"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Recognize the face currently in front of the camera",
	Long: `Run one recognition against the current camera frame.

The camera must be running (see "face-console camera start"). A frame
without a face, or with a face the appliance cannot match, is reported as
"no match" and is not an error. Matches are recorded in the journal.`,
	Args: cobra.NoArgs,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
	addOutputFlag(recognizeCmd)
}

func runRecognize(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

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

	status, err := client.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	trigger := recognition.NewTrigger(client, journal, nil, logger)
	trigger.SetCameraActive(status.CameraActive)

	result, err := trigger.Recognize(ctx)
	if err != nil {
		return err
	}
	return printResult(format, result)
}

// printResult prints a recognition result without its face crop.
func printResult(format string, result recognition.Result) error {
	result.FaceImage = ""
	return printOutput(format, result, func(w *tabwriter.Writer) {
		if !result.Matched {
			msg := result.Message
			if msg == "" && result.Identity != "" {
				msg = "face not recognized (" + result.Identity + ")"
			}
			if msg == "" {
				msg = "no match"
			}
			fmt.Fprintf(w, "Result:\t%s\n", msg)
			return
		}
		fmt.Fprintf(w, "Identity:\t%s\n", result.Identity)
		fmt.Fprintf(w, "Confidence:\t%.1f%%\n", result.Confidence*100)
		if result.Timestamp != "" {
			fmt.Fprintf(w, "Timestamp:\t%s\n", result.Timestamp)
		}
	})
}
