package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"punchcard.org/core/models"
	"punchcard.org/core/server/db"
	"punchcard.org/core/server/pages"
	"punchcard.org/core/session"
)

func (h *Handle) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/punchcard", http.StatusFound)
}

func (h *Handle) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("User-agent: *\nDisallow: /\n"))
}

func (h *Handle) PunchcardPage(w http.ResponseWriter, r *http.Request) {
	l := h.l.With("handler", "PunchcardPage")

	year := -1
	if yearVal := r.URL.Query().Get("year"); yearVal != "" {
		y, err := strconv.Atoi(yearVal)
		if err != nil {
			writeError(w, "invalid year", http.StatusBadRequest)
			return
		}
		year = y
	}

	years, err := db.ListYears(h.db)
	if err != nil {
		l.Error("listing years", "error", err)
		writeError(w, "failed to list years", http.StatusInternalServerError)
		return
	}

	if year == -1 && len(years) > 0 {
		year = years[0]
	}

	cards, err := db.ListPunchcards(h.db, year)
	if err != nil {
		l.Error("listing punchcards", "year", year, "error", err)
		writeError(w, "failed to list punchcards", http.StatusInternalServerError)
		return
	}

	params := pages.PunchcardParams{
		Year:  year,
		Years: years,
		Today: pages.Today{
			Month: int(time.Now().Month()),
			Day:   time.Now().Day(),
		},
	}
	for _, c := range cards {
		params.Cards = append(params.Cards, pages.Card{
			Id:    c.Id,
			Year:  c.Year,
			Label: c.Label,
			Grid:  c.Grid(),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages.Punchcard(w, params); err != nil {
		l.Error("rendering page", "error", err)
	}
}

func (h *Handle) CreatePunchcard(w http.ResponseWriter, r *http.Request) {
	l := h.l.With("handler", "CreatePunchcard")

	var data struct {
		Year  int    `json:"year"`
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	card := models.NewPunchcard(data.Year, data.Label)
	if err := db.PutPunchcard(h.db, card); err != nil {
		l.Error("saving punchcard", "error", err)
		writeError(w, "failed to save punchcard", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"ok": true, "id": card.Id})
}

func (h *Handle) UpdatePunchcard(w http.ResponseWriter, r *http.Request) {
	l := h.l.With("handler", "UpdatePunchcard")
	id := chi.URLParam(r, "id")

	var data struct {
		Year  *int    `json:"year"`
		Label *string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	card, err := db.GetPunchcard(h.db, id)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, "no such punchcard", http.StatusNotFound)
		return
	}
	if err != nil {
		l.Error("loading punchcard", "id", id, "error", err)
		writeError(w, "failed to load punchcard", http.StatusInternalServerError)
		return
	}

	// partial patch: omitted fields stay as they are. reassigning the
	// year deliberately leaves existing marks alone, even ones that no
	// longer exist on the new year's calendar
	if data.Year != nil {
		card.Year = *data.Year
	}
	if data.Label != nil {
		card.Label = *data.Label
	}

	if err := db.PutPunchcard(h.db, card); err != nil {
		l.Error("saving punchcard", "id", id, "error", err)
		writeError(w, "failed to save punchcard", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"ok": true})
}

func (h *Handle) DeletePunchcard(w http.ResponseWriter, r *http.Request) {
	l := h.l.With("handler", "DeletePunchcard")
	id := chi.URLParam(r, "id")

	if err := db.DeletePunchcard(h.db, id); err != nil {
		l.Error("deleting punchcard", "id", id, "error", err)
		writeError(w, "failed to delete punchcard", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"ok": true})
}

func (h *Handle) PunchPunchcard(w http.ResponseWriter, r *http.Request) {
	l := h.l.With("handler", "PunchPunchcard")
	id := chi.URLParam(r, "id")

	var data struct {
		Month int  `json:"month"`
		Day   int  `json:"day"`
		Punch bool `json:"punch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	card, err := db.GetPunchcard(h.db, id)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, "no such punchcard", http.StatusNotFound)
		return
	}
	if err != nil {
		l.Error("loading punchcard", "id", id, "error", err)
		writeError(w, "failed to load punchcard", http.StatusInternalServerError)
		return
	}

	applied, err := card.Punch(data.Month, data.Day, data.Punch)
	if errors.Is(err, models.ErrDateOutOfRange) {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		l.Error("punching", "id", id, "error", err)
		writeError(w, "failed to punch", http.StatusInternalServerError)
		return
	}

	if err := db.PutPunchcard(h.db, card); err != nil {
		l.Error("saving punchcard", "id", id, "error", err)
		writeError(w, "failed to save punchcard", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"ok": true, "punched": applied})
}

func (h *Handle) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.auth.Authorized(r) {
		http.Redirect(w, r, "/punchcard", http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages.Login(w, pages.LoginParams{}); err != nil {
		h.l.Error("rendering login page", "error", err)
	}
}

func (h *Handle) Login(w http.ResponseWriter, r *http.Request) {
	l := h.l.With("handler", "Login")

	if err := r.ParseForm(); err != nil {
		writeError(w, "invalid form", http.StatusBadRequest)
		return
	}

	token, err := h.auth.Login(r.FormValue("username"), r.FormValue("password"))
	if errors.Is(err, session.ErrInvalidCredentials) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		if err := h.pages.Login(w, pages.LoginParams{Error: "invalid credentials"}); err != nil {
			l.Error("rendering login page", "error", err)
		}
		return
	}
	if err != nil {
		l.Error("issuing token", "error", err)
		writeError(w, "failed to log in", http.StatusInternalServerError)
		return
	}

	h.auth.SetCookie(w, token)
	http.Redirect(w, r, "/punchcard", http.StatusFound)
}

func (h *Handle) Logout(w http.ResponseWriter, r *http.Request) {
	// no server-side revocation: clearing the cookie is all there is
	h.auth.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to serialize JSON", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
