package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/loclate/loclate/pkg/api"
)

var (
	historyPage     int
	historyPageSize int
	revertMessage   string

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show project history",
		Long: `Show the project's change history, newest first. Every push and
revert is a separate record.

Examples:
  loclate --project demo history
  loclate --project demo history show 7f3a9c`,
		RunE: runHistory,
		Args: cobra.NoArgs,
	}

	historyShowCmd = &cobra.Command{
		Use:   "show <history-id>",
		Short: "Show one history record with its changes",
		RunE:  runHistoryShow,
		Args:  cobra.ExactArgs(1),
	}

	revertCmd = &cobra.Command{
		Use:   "revert <history-id>",
		Short: "Revert the project to the state a history record produced",
		Long: `Revert every change recorded by a history record. The revert itself
becomes a new history record, so nothing is ever lost.

Examples:
  loclate --project demo revert 7f3a9c
  loclate --project demo revert 7f3a9c -m "undo bad import"`,
		RunE: runRevert,
		Args: cobra.ExactArgs(1),
	}
)

func init() {
	historyCmd.Flags().IntVar(&historyPage, "page", 1, "Page number")
	historyCmd.Flags().IntVar(&historyPageSize, "page-size", 20, "Records per page")
	historyCmd.AddCommand(historyShowCmd)
	revertCmd.Flags().StringVarP(&revertMessage, "message", "m", "", "Describe the revert for history")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	client, project, err := newAPIClient()
	if err != nil {
		return err
	}

	resp, err := client.ListHistory(cmd.Context(), project, historyPage, historyPageSize)
	if err != nil {
		return err
	}

	if len(resp.Items) == 0 {
		fmt.Println("No history yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	_, _ = fmt.Fprintln(w, "ID\tDATE\tAUTHOR\tTYPE\tCHANGES\tMESSAGE")
	for _, item := range resp.Items {
		changes := fmt.Sprintf("+%d ~%d -%d", item.EntriesAdded, item.EntriesModified, item.EntriesDeleted)
		label := item.OperationType
		if item.Status == "reverted" {
			label += " (reverted)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			item.HistoryID,
			item.CreatedAt.Local().Format("2006-01-02 15:04"),
			item.CreatedBy,
			label,
			changes,
			truncate(item.Message, 50))
	}

	if resp.HasMore {
		fmt.Printf("\n(page %d of %d records; use --page %d for more)\n",
			resp.Page, resp.Total, resp.Page+1)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	client, project, err := newAPIClient()
	if err != nil {
		return err
	}

	detail, err := client.GetHistory(cmd.Context(), project, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("History %s (%s)\n", detail.HistoryID, detail.OperationType)
	fmt.Printf("Author:  %s\n", detail.CreatedBy)
	fmt.Printf("Date:    %s\n", detail.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if detail.Message != "" {
		fmt.Printf("Message: %s\n", detail.Message)
	}
	if detail.Status == "reverted" {
		fmt.Println("Status:  reverted")
	}
	if detail.RevertOf != "" {
		fmt.Printf("Reverts: %s\n", detail.RevertOf)
	}

	fmt.Println()
	for _, ch := range detail.Changes {
		printChange(ch)
	}
	return nil
}

func runRevert(cmd *cobra.Command, args []string) error {
	client, project, err := newAPIClient()
	if err != nil {
		return err
	}

	result, err := client.Revert(cmd.Context(), project, args[0], api.RevertRequest{
		Message: revertMessage,
		Source:  "cli",
	})
	if err != nil {
		return fmt.Errorf("revert failed: %w", err)
	}

	if result.EntriesRestored == 0 {
		fmt.Println("Nothing to revert: the project already matches that record.")
		return nil
	}

	fmt.Printf("Reverted %d change(s). New history record: %s\n",
		result.EntriesRestored, result.History.HistoryID)
	fmt.Println("Run 'loclate pull' to refresh the working copy.")
	return nil
}

// printChange выводит одно изменение из записи истории.
func printChange(ch api.ChangeRecord) {
	name := ch.Key
	if ch.Lang != "" {
		name = fmt.Sprintf("%s [%s]", ch.Key, ch.Lang)
	}
	if ch.Scope == "config" {
		name = "config " + ch.Key
	}

	switch ch.ChangeType {
	case "added":
		fmt.Printf("  + %s = %s\n", name, deref(ch.AfterValue))
	case "deleted":
		fmt.Printf("  - %s (was %s)\n", name, deref(ch.BeforeValue))
	default:
		fmt.Printf("  ~ %s: %s -> %s\n", name, deref(ch.BeforeValue), deref(ch.AfterValue))
	}
}
