package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	listLang   string
	listStatus string

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List working copy entries",
		Long: `List translation entries in the local working copy.

Examples:
  loclate list
  loclate list --lang fr
  loclate list --status pending`,
		RunE: runList,
		Args: cobra.NoArgs,
	}
)

func init() {
	listCmd.Flags().StringVar(&listLang, "lang", "", "Show only this language")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Show only entries with this workflow status")
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	entries, err := newStoreService(ws).ListEntries(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	shown := 0
	_, _ = fmt.Fprintln(w, "KEY\tLANG\tSTATUS\tVALUE")
	for _, e := range entries {
		if listLang != "" && e.Lang != listLang {
			continue
		}
		if listStatus != "" && string(e.Status) != listStatus {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Key, e.Lang, e.Status, truncate(formatValue(e), 60))
		shown++
	}

	if shown == 0 {
		_, _ = fmt.Fprintln(w, "(no entries)")
	}
	return nil
}
