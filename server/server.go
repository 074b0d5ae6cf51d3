package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v3"
	"punchcard.org/core/log"
	"punchcard.org/core/server/config"
	"punchcard.org/core/server/db"
	"punchcard.org/core/server/pages"
	"punchcard.org/core/session"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:   "server",
		Usage:  "run the punchcard server",
		Action: Run,
		Description: `
Environment variables:
	PUNCHCARD_SERVER_LISTEN_ADDR           (default: 0.0.0.0:3000)
	PUNCHCARD_SERVER_DB_PATH               (default: punchcard.db)
	PUNCHCARD_SERVER_DEV                   (default: false)
	PUNCHCARD_AUTH_USERNAME                (auth off unless username or password is set)
	PUNCHCARD_AUTH_PASSWORD
	PUNCHCARD_AUTH_COOKIE_SECRET
	PUNCHCARD_AUTH_SESSION_DURATION_DAYS   (default: 30)
	PUNCHCARD_RATELIMIT_REQUESTS_PER_SECOND (default: 5)
	PUNCHCARD_RATELIMIT_PUNCHES_PER_SECOND  (default: 10)
`,
	}
}

func Run(ctx context.Context, cmd *cli.Command) error {
	logger := log.FromContext(ctx)

	c, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	d, err := db.Setup(c.Server.DBPath)
	if err != nil {
		return fmt.Errorf("failed to load db: %w", err)
	}
	defer d.Close()

	auth := session.New(session.Config{
		Username: c.Auth.Username,
		Password: c.Auth.Password,
		Secret:   c.Auth.CookieSecret,
		Duration: c.Auth.SessionDuration(),
		Secure:   !c.Server.Dev,
	})
	if auth.Disabled() {
		logger.Warn("no credentials configured, auth is disabled")
	}

	p, err := pages.New()
	if err != nil {
		return fmt.Errorf("failed to load pages: %w", err)
	}

	mux, err := Setup(ctx, c, d, auth, p)
	if err != nil {
		return fmt.Errorf("failed to setup server: %w", err)
	}

	logger.Info("starting server", "address", c.Server.ListenAddr)
	logger.Error("server error", "error", http.ListenAndServe(c.Server.ListenAddr, mux))

	return nil
}
