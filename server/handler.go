package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"punchcard.org/core/log"
	"punchcard.org/core/server/config"
	"punchcard.org/core/server/db"
	"punchcard.org/core/server/pages"
	"punchcard.org/core/session"
)

type Handle struct {
	c     *config.Config
	db    *db.DB
	auth  *session.Auth
	pages *pages.Pages
	l     *slog.Logger
}

func Setup(ctx context.Context, c *config.Config, d *db.DB, auth *session.Auth, p *pages.Pages) (http.Handler, error) {
	r := chi.NewRouter()

	h := Handle{
		c:     c,
		db:    d,
		auth:  auth,
		pages: p,
		l:     log.FromContext(ctx),
	}

	r.Use(h.RequestLogger)
	r.Use(httprate.LimitByIP(c.RateLimit.RequestsPerSecond, time.Second))

	r.Get("/", h.Index)
	r.Get("/robots.txt", h.Robots)

	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	r.Route("/punchcard", func(r chi.Router) {
		r.Use(h.WithAuth)

		r.Get("/", h.PunchcardPage)
		r.Post("/", h.CreatePunchcard)
		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", h.UpdatePunchcard)
			r.Delete("/", h.DeletePunchcard)
			r.With(httprate.LimitByIP(c.RateLimit.PunchesPerSecond, time.Second)).
				Put("/punch", h.PunchPunchcard)
		})
	})

	return r, nil
}
