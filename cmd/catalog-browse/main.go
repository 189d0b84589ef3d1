// Command catalog-browse is a terminal browser for the catalog API: an
// incrementally loaded, searchable product list with login handling.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/nutriview/catalog-client/pkg/api"
	"github.com/nutriview/catalog-client/pkg/browse"
	"github.com/nutriview/catalog-client/pkg/credentials"
	"github.com/nutriview/catalog-client/pkg/logging"
)

func main() {
	// .env is optional; environment wins
	_ = godotenv.Load()

	baseURL := getEnv("CATALOG_API_URL", api.DefaultBaseURL)
	tokenPath := getEnv("CATALOG_TOKEN_PATH", credentials.DefaultTokenPath())
	logLevel := getEnv("CATALOG_LOG_LEVEL", "info")
	logFile := os.Getenv("CATALOG_LOG_FILE")

	// The TUI owns the terminal; logs go to a file or nowhere
	var logOut io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(logLevel),
		Output: logOut,
	})

	store := credentials.NewFileStore(tokenPath)

	client, err := api.New(api.DefaultConfig(store, baseURL))
	if err != nil {
		fmt.Fprintf(os.Stderr, "create API client: %v\n", err)
		os.Exit(1)
	}

	// A stored token skips the login screen; expiry is discovered by the
	// first rejected request.
	token, err := store.Read(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "read stored token: %v\n", err)
		os.Exit(1)
	}

	var program *tea.Program

	ctrl, err := browse.New(browse.Config{
		Gateway:     client,
		Credentials: store,
		OnChange: func(s browse.State) {
			if program != nil {
				program.Send(stateMsg{state: s})
			}
		},
		OnLoggedOut: func() {
			if program != nil {
				program.Send(loggedOutMsg{})
			}
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create controller: %v\n", err)
		os.Exit(1)
	}
	defer ctrl.Close()

	app := newApp(client, ctrl, token != "")
	program = tea.NewProgram(app, tea.WithAltScreen())

	logger.Info().Str("base_url", baseURL).Msg("Starting catalog browser")

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "catalog-browse: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
