package pages

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"punchcard.org/core/models"
)

//go:embed templates/*
var files embed.FS

type Pages struct {
	t *template.Template
}

func New() (*Pages, error) {
	t, err := template.New("").Funcs(funcMap()).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Pages{t: t}, nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		// grid columns are zero-indexed, months are not
		"inc": func(n int) int { return n + 1 },
	}
}

// Card is a punchcard plus its materialized grid, ready to render.
type Card struct {
	Id    string
	Year  int
	Label string
	Grid  models.Grid
}

type Today struct {
	Month int
	Day   int
}

type PunchcardParams struct {
	Year  int
	Years []int
	Cards []Card
	Today Today
}

func (p *Pages) Punchcard(w io.Writer, params PunchcardParams) error {
	return p.t.ExecuteTemplate(w, "punchcard.html", params)
}

type LoginParams struct {
	Error string
}

func (p *Pages) Login(w io.Writer, params LoginParams) error {
	return p.t.ExecuteTemplate(w, "login.html", params)
}
