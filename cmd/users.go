package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/kozaktomas/face-console/internal/config"
	"github.com/kozaktomas/face-console/internal/directory"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage enrolled users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled users",
	Long: `List the users enrolled on the appliance in server order.
IDs are positions in this listing, not stable identifiers.`,
	Args: cobra.NoArgs,
	RunE: runUsersList,
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an enrolled user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersDelete,
}

var usersRenameCmd = &cobra.Command{
	Use:   "rename <name> <new-name>",
	Short: "Rename an enrolled user",
	Args:  cobra.ExactArgs(2),
	RunE:  runUsersRename,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersDeleteCmd)
	usersCmd.AddCommand(usersRenameCmd)

	addOutputFlag(usersListCmd)
}

func newDirectory() (*directory.Directory, error) {
	cfg := config.Load()
	client, err := newAppliance(cfg)
	if err != nil {
		return nil, err
	}
	return directory.New(client, newLogger(cfg.LogLevel), nil), nil
}

func runUsersList(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	dir, err := newDirectory()
	if err != nil {
		return err
	}

	entries, err := dir.Refresh(cmd.Context())
	if err != nil {
		return err
	}

	if format == outputTable && len(entries) == 0 {
		fmt.Println("No users enrolled.")
		return nil
	}

	return printOutput(format, entries, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tSAMPLES")
		fmt.Fprintln(w, "--\t----\t-------")
		for _, e := range entries {
			samples := "-"
			if e.FaceSampleCount > 0 {
				samples = fmt.Sprint(e.FaceSampleCount)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", e.ID, e.Name, samples)
		}
		fmt.Fprintf(w, "\nTotal: %d users\n", len(entries))
	})
}

func runUsersDelete(cmd *cobra.Command, args []string) error {
	dir, err := newDirectory()
	if err != nil {
		return err
	}

	msg, err := dir.Delete(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printMessage(msg, fmt.Sprintf("Deleted %s.", args[0]))
	return nil
}

func runUsersRename(cmd *cobra.Command, args []string) error {
	dir, err := newDirectory()
	if err != nil {
		return err
	}

	msg, err := dir.Rename(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	printMessage(msg, fmt.Sprintf("Renamed %s to %s.", args[0], args[1]))
	return nil
}

// printMessage prints the appliance message, or fallback when it sent none.
func printMessage(msg, fallback string) {
	if msg == "" {
		msg = fallback
	}
	fmt.Println(msg)
}
