// Command issue-session creates a session in the SQL backend and prints the
// cookie to set in a browser to pass the sign-in gate during development.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/okian/checkboard/internal/adapters/repository"
	"github.com/okian/checkboard/internal/config"
	"github.com/okian/checkboard/pkg/logger"
)

const defaultTimeout = 30 * time.Second

var errNotSQLBackend = errors.New("sessions can only be issued for the sql backend")

func main() {
	var (
		userID  = flag.String("user", "", "User id for the session (default: a random id)")
		name    = flag.String("name", "", "Display name greeted on the main page")
		timeout = flag.Duration("timeout", defaultTimeout, "Database timeout")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		showHelp(os.Stdout)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, os.Stdout, *userID, *name); err != nil {
		_, _ = os.Stderr.WriteString("issue-session: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// run issues one session and writes "<cookie>=<token>" to out.
func run(ctx context.Context, out io.Writer, userID, name string) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Backend != config.BackendSQL {
		return errNotSQLBackend
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(os.Stderr)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	_ = logger.SetLevelString(cfg.LogLevel)

	store, err := repository.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if userID == "" {
		userID = uuid.NewString()
	}
	token, err := issue(ctx, store, userID, name)
	if err != nil {
		return err
	}

	logger.Get().Info(ctx, "session issued",
		logger.String("user_id", userID),
		logger.String("display_name", name),
	)
	_, err = fmt.Fprintf(out, "%s=%s\n", cfg.SessionCookie, token)
	return err
}

func issue(ctx context.Context, store repository.Store, userID, name string) (string, error) {
	if err := store.Migrate(ctx); err != nil {
		return "", fmt.Errorf("migrate database: %w", err)
	}
	token, err := store.CreateSession(ctx, userID, name)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

func showHelp(w io.Writer) {
	_, _ = io.WriteString(w, `issue-session
=============

Creates a session row in the checkboard SQL backend and prints the cookie
that signs a browser in.

Usage:
  go run ./cmd/issue-session [options]

Options:
  -user string
        User id for the session (default: a random id)
  -name string
        Display name greeted on the main page
  -timeout duration
        Database timeout (default 30s)
  -help
        Show this help

The database is taken from the usual configuration: CHECKBOARD_CONFIG,
CHECKBOARD_DATABASE_DRIVER, CHECKBOARD_DATABASE_URL and .env.

Example:
  go run ./cmd/issue-session -name "Ada Lovelace"
  sb-access-token=3f0c...
`)
}
