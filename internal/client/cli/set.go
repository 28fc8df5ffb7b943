package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loclate/loclate/internal/client/store"
)

var (
	setComment      string
	setStatus       string
	setPluralForms  map[string]string
	setSourcePlural string

	setCmd = &cobra.Command{
		Use:   "set <key> <lang> [value]",
		Short: "Set a translation in the working copy",
		Long: `Set or update a translation in the local working copy.

Omitting the value registers the key for the language without a
translation (a placeholder awaiting translation). Plural entries take
their forms via --plural instead of a plain value.

Examples:
  loclate set app.greeting en "Hello"
  loclate set app.greeting fr "Bonjour" --comment "Main screen"
  loclate set app.greeting de
  loclate set cart.items en --plural one="%d item",other="%d items"`,
		RunE: runSet,
		Args: cobra.RangeArgs(2, 3),
	}
)

func init() {
	setCmd.Flags().StringVar(&setComment, "comment", "", "Translator comment for the key")
	setCmd.Flags().StringVar(&setStatus, "status", "", "Workflow status (pending, translated, reviewed, approved)")
	setCmd.Flags().StringToStringVar(&setPluralForms, "plural", nil, "Plural forms as form=text pairs")
	setCmd.Flags().StringVar(&setSourcePlural, "source-plural", "", "Source language plural text")
}

func runSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	key, lang := args[0], args[1]
	var value *string
	if len(args) == 3 {
		value = &args[2]
	}

	opts := store.SetOptions{
		Comment:          setComment,
		Status:           setStatus,
		SourcePluralText: setSourcePlural,
	}
	if len(setPluralForms) > 0 {
		opts.IsPlural = true
		opts.PluralForms = setPluralForms
	}

	entry, err := newStoreService(ws).SetEntry(ctx, key, lang, value, opts)
	if err != nil {
		return err
	}

	fmt.Printf("%s [%s] = %s\n", entry.Key, entry.Lang, formatValue(entry))
	return nil
}
