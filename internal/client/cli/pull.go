package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	pullFull bool

	pullCmd = &cobra.Command{
		Use:   "pull",
		Short: "Pull server state into the working copy",
		Long: `Pull the server state into the local working copy.

By default only changes since the last synchronization are fetched,
and locally modified translations are left untouched. --full fetches
the complete snapshot and overwrites local edits.

Examples:
  loclate --project demo pull
  loclate --project demo pull --full`,
		RunE: runPull,
		Args: cobra.NoArgs,
	}
)

func init() {
	pullCmd.Flags().BoolVar(&pullFull, "full", false, "Fetch the complete snapshot and overwrite local edits")
}

func runPull(cmd *cobra.Command, _ []string) error {
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

	result, err := svc.Pull(ctx, pullFull)
	if err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}

	mode := "full"
	if result.Incremental {
		mode = "incremental"
	}
	fmt.Printf("Pulled %d key(s) (%s).\n", result.Keys, mode)
	if result.ConfigProps > 0 {
		fmt.Printf("Configuration properties updated: %d\n", result.ConfigProps)
	}
	if result.DeletedKeys > 0 {
		fmt.Printf("Keys removed: %d\n", result.DeletedKeys)
	}
	if result.KeptLocal > 0 {
		fmt.Printf("Kept %d local edit(s); push them to share.\n", result.KeptLocal)
	}
	if result.WorkflowMessage != "" {
		fmt.Println(result.WorkflowMessage)
	}

	return nil
}
