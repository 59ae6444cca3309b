package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/robby/taskdeck/internal/credentials"
	"github.com/robby/taskdeck/internal/ops"
	"github.com/robby/taskdeck/internal/proxy"
	"github.com/robby/taskdeck/internal/store"
	"github.com/robby/taskdeck/internal/taskapi"
	"github.com/robby/taskdeck/internal/tui"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskdeck",
		Short: "Task manager proxy and console client",
		Long: `taskdeck fronts a task/auth backend with a session-cookie
authenticated proxy and ships an interactive console client.

  taskdeck serve    run the authenticated proxy for the web UI
  taskdeck console  manage tasks from the terminal

The backend address comes from --backend or TASKDECK_BACKEND
(default http://localhost:8000).`,
	}

	rootCmd.AddCommand(serveCmd(), consoleCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// backendURL resolves the backend base URL from flag or environment.
func backendURL(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("TASKDECK_BACKEND"); env != "" {
		return env
	}
	return taskapi.DefaultBaseURL
}

func serveCmd() *cobra.Command {
	var (
		addr          string
		backend       string
		secureCookies bool
		staticDir     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the authenticated proxy",
		Long: `serve runs the HTTP proxy that fronts the backend task/auth service.

It authenticates requests via an HTTP-only session cookie, forwards them
to the backend with a bearer credential, and redirects unauthenticated
navigation under /tasks to the sign-in view.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := proxy.NewServer(proxy.Config{
				BackendURL:    backendURL(backend),
				SecureCookies: secureCookies,
				StaticDir:     staticDir,
			})
			return server.ListenAndServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":3000", "Listen address.")
	cmd.Flags().StringVar(&backend, "backend", "", "Backend base URL. Defaults to TASKDECK_BACKEND or http://localhost:8000.")
	cmd.Flags().BoolVar(&secureCookies, "secure-cookies", false, "Mark the session cookie Secure (set in production).")
	cmd.Flags().StringVar(&staticDir, "static", "", "Directory of UI shell static files to serve.")

	return cmd
}

func consoleCmd() *cobra.Command {
	var (
		backend string
		webURL  string
		token   string
	)

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Run the interactive console client",
		Long: `console is an interactive terminal client for the task backend.

Sign in with your account, or pass --token (or set TASKDECK_TOKEN) to
skip the sign-in screen. The token is held in memory only for the
session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := credentials.NewMemoryStore()
			seed := credentials.Fallback(credentials.Static(token), credentials.EnvStore{})
			if tok, err := seed.Token(); err == nil {
				creds.Set(tok)
			}

			client := taskapi.New(backendURL(backend), creds)
			s := store.New()
			coord := ops.New(client, s)
			ctx := context.Background()

			app := tui.NewAppModel(client, coord, s, creds, ctx, webURL)

			p := tea.NewProgram(app, tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("program error: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "Backend base URL. Defaults to TASKDECK_BACKEND or http://localhost:8000.")
	cmd.Flags().StringVar(&webURL, "web", "http://localhost:3000/tasks", "Web app URL opened by the 'w' binding.")
	cmd.Flags().StringVar(&token, "token", "", "Session token. Overrides TASKDECK_TOKEN.")

	return cmd
}
