package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	clientsync "github.com/loclate/loclate/internal/client/sync"
	"github.com/loclate/loclate/internal/models"
	"github.com/loclate/loclate/pkg/api"
)

var (
	resolveUse     string
	resolveMessage string

	resolveCmd = &cobra.Command{
		Use:   "resolve",
		Short: "Resolve pending conflicts",
		Long: `Resolve conflicts recorded by previous pushes.

Without flags each conflict is presented interactively: keep the local
value, accept the remote one, type a replacement, or skip. --use
applies one answer to every conflict without prompting.

Examples:
  loclate --project demo resolve
  loclate --project demo resolve --use remote`,
		RunE: runResolve,
		Args: cobra.NoArgs,
	}
)

func init() {
	resolveCmd.Flags().StringVar(&resolveUse, "use", "", "Resolve all conflicts one way (local or remote)")
	resolveCmd.Flags().StringVarP(&resolveMessage, "message", "m", "", "Describe the resolution for history")
}

func runResolve(cmd *cobra.Command, _ []string) error {
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

	conflicts, err := ws.ListConflicts(ctx)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		fmt.Println("No pending conflicts.")
		return nil
	}

	var decisions []clientsync.Decision
	switch resolveUse {
	case "":
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("stdin is not a terminal: use --use local or --use remote for non-interactive resolution")
		}
		decisions, err = promptDecisions(conflicts)
		if err != nil {
			return err
		}
	case api.ResolutionLocal, api.ResolutionRemote:
		for _, c := range conflicts {
			decisions = append(decisions, clientsync.Decision{Conflict: c, Resolution: resolveUse})
		}
	default:
		return fmt.Errorf("unknown --use value %q: expected local or remote", resolveUse)
	}

	result, err := svc.Resolve(ctx, decisions)
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}

	fmt.Println()
	fmt.Printf("Resolved %d conflict(s), skipped %d.\n", result.Applied, result.Skipped)
	if len(result.Stale) > 0 {
		fmt.Printf("⚠️  %d conflict(s) went stale: the server changed again. Run 'loclate resolve' once more.\n",
			len(result.Stale))
	}

	return nil
}

// promptDecisions опрашивает оператора по каждому конфликту.
func promptDecisions(conflicts []api.ConflictRecord) ([]clientsync.Decision, error) {
	decisions := make([]clientsync.Decision, 0, len(conflicts))

	fmt.Printf("%d conflict(s) to resolve.\n", len(conflicts))
	for i, c := range conflicts {
		fmt.Println()
		fmt.Printf("[%d/%d] ", i+1, len(conflicts))
		printConflict(c)

		answer, err := readInput("Keep [l]ocal, accept [r]emote, [e]dit, [s]kip? ")
		if err != nil {
			return nil, err
		}

		d := clientsync.Decision{Conflict: c}
		switch answer {
		case "l", "local":
			d.Resolution = api.ResolutionLocal
		case "r", "remote":
			d.Resolution = api.ResolutionRemote
		case "e", "edit":
			value, err := readInput("New value: ")
			if err != nil {
				return nil, err
			}
			d.Resolution = api.ResolutionEdit
			d.EditedValue = &value
		case "s", "skip", "":
			d.Resolution = api.ResolutionSkip
		default:
			fmt.Printf("Unknown answer %q, skipping.\n", answer)
			d.Resolution = api.ResolutionSkip
		}
		decisions = append(decisions, d)
	}

	return decisions, nil
}

// printConflict выводит конфликт в терминал.
func printConflict(c api.ConflictRecord) {
	name := c.Key
	if c.Lang != "" {
		name = fmt.Sprintf("%s [%s]", c.Key, c.Lang)
	}
	if c.Scope == string(models.ScopeConfig) {
		name = "config " + c.Key
	}

	switch c.Type {
	case string(models.ConflictDeletedRemote):
		fmt.Printf("%s: deleted on the server, changed locally\n", name)
	case string(models.ConflictDeletedLocal):
		fmt.Printf("%s: deleted locally, changed on the server\n", name)
	default:
		fmt.Printf("%s: changed on both sides\n", name)
	}
	fmt.Printf("    local:  %s\n", deref(c.LocalValue))
	fmt.Printf("    remote: %s (by %s at %s)\n",
		deref(c.RemoteValue), c.RemoteUpdatedBy, c.RemoteUpdatedAt.Local().Format("2006-01-02 15:04"))
}
