package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/loclate/loclate/internal/client/store"
)

var (
	configValueType string

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage project configuration properties",
		Long: `Manage project configuration in the working copy. Configuration
properties synchronize with the same conflict rules as translations.

Examples:
  loclate config set default_language fr
  loclate config set review_required true --type bool
  loclate config list`,
	}

	configSetCmd = &cobra.Command{
		Use:   "set <path> <value>",
		Short: "Set a configuration property",
		RunE:  runConfigSet,
		Args:  cobra.ExactArgs(2),
	}

	configGetCmd = &cobra.Command{
		Use:   "get <path>",
		Short: "Show a configuration property",
		RunE:  runConfigGet,
		Args:  cobra.ExactArgs(1),
	}

	configListCmd = &cobra.Command{
		Use:   "list",
		Short: "List configuration properties",
		RunE:  runConfigList,
		Args:  cobra.NoArgs,
	}

	configDeleteCmd = &cobra.Command{
		Use:   "delete <path>",
		Short: "Delete a configuration property",
		RunE:  runConfigDelete,
		Args:  cobra.ExactArgs(1),
	}
)

func init() {
	configSetCmd.Flags().StringVar(&configValueType, "type", "", "Value type (string, bool, int, json)")
	configCmd.AddCommand(configSetCmd, configGetCmd, configListCmd, configDeleteCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	prop, err := newStoreService(ws).SetConfig(ctx, args[0], configValueType, args[1])
	if err != nil {
		return err
	}

	fmt.Printf("%s = %s (%s)\n", prop.Path, prop.Value, prop.ValueType)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	prop, err := newStoreService(ws).GetConfig(ctx, args[0])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("property %s not found", args[0])
		}
		return err
	}

	fmt.Printf("%s = %s (%s)\n", prop.Path, prop.Value, prop.ValueType)
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	props, err := newStoreService(ws).ListConfig(ctx)
	if err != nil {
		return err
	}

	if len(props) == 0 {
		fmt.Println("(no configuration properties)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	_, _ = fmt.Fprintln(w, "PATH\tTYPE\tVALUE")
	for _, p := range props {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.Path, p.ValueType, truncate(p.Value, 60))
	}
	return nil
}

func runConfigDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	if err := newStoreService(ws).DeleteConfig(ctx, args[0]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("property %s not found", args[0])
		}
		return err
	}

	fmt.Printf("Deleted %s\n", args[0])
	return nil
}
