package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/marksapp/marks/internal/apiclient"
	"github.com/marksapp/marks/internal/client"
	"github.com/marksapp/marks/internal/logger"
	"github.com/marksapp/marks/internal/tui"
)

func newWatchCmd() *cobra.Command {
	var serverURL, token string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live terminal view of your bookmarks",
		Long:  "Watch connects to a marks server and keeps a live, searchable bookmark list in the terminal. Changes made anywhere appear as they happen.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverURL == "" {
				serverURL = os.Getenv("MARKS_SERVER_URL")
			}
			if token == "" {
				token = os.Getenv("MARKS_API_TOKEN")
			}
			if serverURL == "" {
				return fmt.Errorf("server URL required (--server or MARKS_SERVER_URL)")
			}
			if token == "" {
				return fmt.Errorf("API token required (--token or MARKS_API_TOKEN)")
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			api := apiclient.New(serverURL, token)

			// Subscribe before the initial load so no change falls in the
			// gap between snapshot and feed.
			sub, err := api.Subscribe(ctx)
			if err != nil {
				return fmt.Errorf("connect to event feed: %w", err)
			}
			defer sub.Close()

			store := client.NewStore(api, logger.Nop())
			model := tui.New(ctx, store, sub)

			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "marks server base URL")
	cmd.Flags().StringVar(&token, "token", "", "API token (create one under Settings > Tokens)")

	return cmd
}
