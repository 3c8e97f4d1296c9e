package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/kozaktomas/face-console/internal/config"
	"github.com/kozaktomas/face-console/internal/constants"
	"github.com/spf13/cobra"
)

var recognitionsCmd = &cobra.Command{
	Use:   "recognitions",
	Short: "List recent recognitions from the journal",
	Long: `List recent recognitions recorded by watch, serve and recognize, newest
first. Without DATABASE_URL the journal lives in memory only, so this
command has nothing to show.`,
	Args: cobra.NoArgs,
	RunE: runRecognitions,
}

func init() {
	rootCmd.AddCommand(recognitionsCmd)

	addOutputFlag(recognitionsCmd)
	recognitionsCmd.Flags().Int("limit", constants.DefaultJournalLimit, "Number of recognitions to show")
}

func runRecognitions(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	limit := mustGetInt(cmd, "limit")

	cfg := config.Load()
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	ctx := cmd.Context()
	journal, closeJournal, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeJournal()

	recs, err := journal.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to read recognitions: %w", err)
	}
	total, err := journal.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count recognitions: %w", err)
	}

	if format == outputTable && len(recs) == 0 {
		fmt.Println("No recognitions recorded.")
		return nil
	}

	return printOutput(format, recs, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "OBSERVED\tIDENTITY\tCONFIDENCE\tSOURCE")
		fmt.Fprintln(w, "--------\t--------\t----------\t------")
		for _, r := range recs {
			fmt.Fprintf(w, "%s\t%s\t%.1f%%\t%s\n",
				r.ObservedAt.Local().Format(time.DateTime), r.Identity, r.Confidence*100, r.Source)
		}
		fmt.Fprintf(w, "\nShowing %d of %d\n", len(recs), total)
	})
}
