package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	pushMessage string

	pushCmd = &cobra.Command{
		Use:   "push",
		Short: "Push local changes to the server",
		Long: `Push local working copy changes to the server.

Changes that collide with someone else's edits are not applied; they
are stored locally as conflicts. The rest of the batch goes through.

Examples:
  loclate --project demo push -m "translate checkout screen"`,
		RunE: runPush,
		Args: cobra.NoArgs,
	}
)

func init() {
	pushCmd.Flags().StringVarP(&pushMessage, "message", "m", "", "Describe the change for history")
}

func runPush(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	svc, err := newSyncService(ws)
	if err != nil {
		return err
	}

	result, err := svc.Push(ctx, pushMessage)
	if err != nil {
		return fmt.Errorf("push failed: %w", err)
	}

	if result.Planned == 0 {
		fmt.Println("Nothing to push, working copy is clean.")
		return nil
	}

	fmt.Printf("Pushed %d change(s): %d applied, %d deleted.\n",
		result.Planned, result.Applied, result.Deleted)
	if result.HistoryID != "" {
		fmt.Printf("History: %s\n", result.HistoryID)
	}

	if len(result.Conflicts) > 0 {
		fmt.Println()
		fmt.Printf("⚠️  %d conflict(s) were held back:\n", len(result.Conflicts))
		for _, c := range result.Conflicts {
			printConflict(c)
		}
		fmt.Println()
		fmt.Println("Run 'loclate resolve' to settle them.")
	}

	return nil
}
