// Package cli реализует команды клиента loclate: правка рабочей
// копии переводов, синхронизация с сервером и работа с историей.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	httpclient "github.com/loclate/loclate/internal/client/api"
	"github.com/loclate/loclate/internal/client/storage/boltdb"
	"github.com/loclate/loclate/internal/client/store"
	"github.com/loclate/loclate/internal/client/sync"
)

var (
	serverURL string
	dbPath    string
	projectID string
	token     string
	verbose   bool

	rootCmd = &cobra.Command{
		Use:   "loclate",
		Short: "Translation workspace client",
		Long: `Loclate client manages a local working copy of translation entries
and synchronizes it with a loclate server.

Edits are local until pushed. A push that collides with someone else's
change is held back as a conflict; resolve it with 'loclate resolve'.

Examples:
  # Edit the working copy
  loclate set app.greeting en "Hello" --comment "Main screen greeting"
  loclate set app.greeting fr "Bonjour"
  loclate list

  # Synchronize
  loclate --project demo --token $LOCLATE_TOKEN push -m "greetings"
  loclate --project demo --token $LOCLATE_TOKEN pull

  # Deal with conflicts
  loclate status
  loclate --project demo resolve`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "loclate-client.db", "Path to local database")
	rootCmd.PersistentFlags().StringVar(&projectID, "project", "", "Project identifier (env: LOCLATE_PROJECT)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Access token (env: LOCLATE_TOKEN)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(
		setCmd,
		getCmd,
		listCmd,
		deleteCmd,
		configCmd,
		pushCmd,
		pullCmd,
		resolveCmd,
		statusCmd,
		historyCmd,
		revertCmd,
	)
}

// Execute запускает корневую команду.
func Execute(ctx context.Context, version string) error {
	rootCmd.Version = version
	return rootCmd.ExecuteContext(ctx)
}

func newLogger() *slog.Logger {
	if verbose {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openWorkspace открывает локальную базу рабочей копии.
// Закрытие на вызывающем.
func openWorkspace(ctx context.Context) (*boltdb.Storage, error) {
	ws, err := boltdb.New(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database %s: %w", dbPath, err)
	}
	return ws, nil
}

func newStoreService(ws *boltdb.Storage) *store.Service {
	return store.NewService(ws, ws, newLogger())
}

// newAPIClient собирает HTTP-клиент сервера. Требует --project.
func newAPIClient() (*httpclient.Client, string, error) {
	project := projectID
	if project == "" {
		project = os.Getenv("LOCLATE_PROJECT")
	}
	if project == "" {
		return nil, "", fmt.Errorf("project is required: pass --project or set LOCLATE_PROJECT")
	}

	accessToken := token
	if accessToken == "" {
		accessToken = os.Getenv("LOCLATE_TOKEN")
	}

	return httpclient.NewClient(serverURL, accessToken), project, nil
}

func newSyncService(ws *boltdb.Storage) (*sync.Service, error) {
	client, project, err := newAPIClient()
	if err != nil {
		return nil, err
	}
	return sync.NewService(client, ws, project, newLogger()), nil
}

// readInput читает строку из stdin.
func readInput(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
