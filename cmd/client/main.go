package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gurkanbulca/dailytasks/internal/client"
)

type app struct {
	serverURL   string
	sessionPath string
	store       *client.TaskStore
}

func main() {
	a := &app{}
	if err := a.rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "dailytasks",
		Short:         "Manage your daily tasks from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
	}

	root.PersistentFlags().StringVar(&a.serverURL, "server", envOr("DAILYTASKS_URL", "http://localhost:8080"), "API base URL")
	root.PersistentFlags().StringVar(&a.sessionPath, "session", "", "session file (default: user config dir)")

	root.AddCommand(
		a.loginCommand(),
		a.logoutCommand(),
		a.registerCommand(),
		a.listCommand(),
		a.addCommand(),
		a.showCommand(),
		a.statusCommand(),
		a.editCommand(),
		a.deleteCommand(),
	)
	return root
}

func (a *app) open() error {
	path := a.sessionPath
	if path == "" {
		var err error
		if path, err = client.DefaultSessionPath(); err != nil {
			return fmt.Errorf("locate session file: %w", err)
		}
	}

	a.store = client.NewTaskStore(client.NewAPI(a.serverURL, nil), client.NewFileSession(path))
	return a.store.Init()
}

// loggedIn fails with a hint when there is no saved session.
func (a *app) loggedIn() error {
	if a.store.State().User == nil {
		return fmt.Errorf("%w: run `dailytasks login <username>` first", client.ErrNotLoggedIn)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
