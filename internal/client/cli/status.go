package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show working copy status",
	Long: `Show pending local changes, unresolved conflicts and the time of
the last synchronization.`,
	RunE: runStatus,
	Args: cobra.NoArgs,
}

func runStatus(cmd *cobra.Command, _ []string) error {
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

	status, err := svc.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Last sync: %s\n", formatLastSync(status.LastSync))

	if status.PendingChanges == 0 && status.Conflicts == 0 {
		fmt.Println("✓ Working copy is clean")
		return nil
	}

	if status.PendingChanges > 0 {
		fmt.Printf("Pending changes: %d (run 'loclate push')\n", status.PendingChanges)
	}
	if status.Conflicts > 0 {
		fmt.Printf("⚠️  Unresolved conflicts: %d (run 'loclate resolve')\n", status.Conflicts)
	}

	return nil
}
