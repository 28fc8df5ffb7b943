package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loclate/loclate/internal/client/store"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <key> [lang]",
	Short: "Delete a key or one of its translations",
	Long: `Delete a key from the working copy. With a language argument removes
only that translation; without it removes the key in every language.

The deletion becomes visible to others on the next push.

Examples:
  loclate delete app.greeting fr
  loclate delete app.greeting`,
	RunE: runDelete,
	Args: cobra.RangeArgs(1, 2),
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	svc := newStoreService(ws)
	key := args[0]

	if len(args) == 2 {
		if err := svc.DeleteEntry(ctx, key, args[1]); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("key %s has no %s translation", key, args[1])
			}
			return err
		}
		fmt.Printf("Deleted %s [%s]\n", key, args[1])
		return nil
	}

	count, err := svc.DeleteKey(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("key %s not found", key)
		}
		return err
	}
	fmt.Printf("Deleted %s (%d translation(s))\n", key, count)
	return nil
}
