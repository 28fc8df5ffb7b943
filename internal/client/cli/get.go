package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loclate/loclate/internal/client/store"
	"github.com/loclate/loclate/internal/models"
)

var getCmd = &cobra.Command{
	Use:   "get <key> [lang]",
	Short: "Show translations of a key",
	Long: `Show a key from the working copy. With a language argument prints
that single translation, otherwise prints every language the key has.

Examples:
  loclate get app.greeting
  loclate get app.greeting fr`,
	RunE: runGet,
	Args: cobra.RangeArgs(1, 2),
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	svc := newStoreService(ws)
	key := args[0]

	var entries []*models.WorkingEntry
	if len(args) == 2 {
		entry, err := svc.GetEntry(ctx, key, args[1])
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("key %s has no %s translation", key, args[1])
			}
			return err
		}
		entries = append(entries, entry)
	} else {
		entries, err = ws.ListKeyEntries(ctx, key)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("key %s not found", key)
		}
	}

	fmt.Printf("Key: %s\n", key)
	if entries[0].Comment != "" {
		fmt.Printf("Comment: %s\n", entries[0].Comment)
	}
	if entries[0].IsPlural && entries[0].SourcePluralText != "" {
		fmt.Printf("Source plural: %s\n", entries[0].SourcePluralText)
	}
	fmt.Println()
	for _, e := range entries {
		fmt.Printf("  %s: %s [%s]\n", e.Lang, formatValue(e), e.Status)
	}

	return nil
}
