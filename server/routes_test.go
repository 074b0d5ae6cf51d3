package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"punchcard.org/core/server/config"
	"punchcard.org/core/server/db"
	"punchcard.org/core/server/pages"
	"punchcard.org/core/session"
)

func testConfig() *config.Config {
	return &config.Config{
		RateLimit: config.RateLimit{
			// generous limits so tests never trip the limiter
			RequestsPerSecond: 1000,
			PunchesPerSecond:  1000,
		},
	}
}

func setupTestServer(t *testing.T, sessCfg session.Config) (*httptest.Server, *db.DB) {
	t.Helper()

	d, err := db.Setup(":memory:")
	require.NoError(t, err)
	// every pooled connection to :memory: would get its own database
	d.SetMaxOpenConns(1)
	t.Cleanup(func() { d.Close() })

	p, err := pages.New()
	require.NoError(t, err)

	mux, err := Setup(context.Background(), testConfig(), d, session.New(sessCfg), p)
	require.NoError(t, err)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, d
}

func openServer(t *testing.T) (*httptest.Server, *db.DB) {
	return setupTestServer(t, session.Config{Secret: "test-secret", Duration: time.Hour})
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func createCard(t *testing.T, ts *httptest.Server, year int, label string) string {
	t.Helper()

	resp := doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/punchcard/", map[string]any{
		"year": year, "label": label,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Ok bool   `json:"ok"`
		Id string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.True(t, out.Ok)
	require.NotEmpty(t, out.Id)
	return out.Id
}

func TestIndexRedirects(t *testing.T) {
	ts, _ := openServer(t)

	client := ts.Client()
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/punchcard", resp.Header.Get("Location"))
}

func TestRobots(t *testing.T) {
	ts, _ := openServer(t)

	resp, err := ts.Client().Get(ts.URL + "/robots.txt")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	assert.Contains(t, buf.String(), "Disallow: /")
}

func TestCreatePunchReload(t *testing.T) {
	ts, d := openServer(t)

	id := createCard(t, ts, 2024, "reading")

	resp := doJSON(t, ts.Client(), http.MethodPut, fmt.Sprintf("%s/punchcard/%s/punch", ts.URL, id), map[string]any{
		"month": 2, "day": 5, "punch": true,
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	card, err := db.GetPunchcard(d, id)
	require.NoError(t, err)
	require.Equal(t, 1, card.MarkCount())
	assert.True(t, card.Marked(2, 5))
}

func TestPunchInvalidDate(t *testing.T) {
	ts, d := openServer(t)

	id := createCard(t, ts, 2023, "reading")

	tests := []struct {
		name  string
		month int
		day   int
	}{
		{"month out of range", 13, 1},
		{"feb 29 on non-leap year", 2, 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, ts.Client(), http.MethodPut, fmt.Sprintf("%s/punchcard/%s/punch", ts.URL, id), map[string]any{
				"month": tt.month, "day": tt.day, "punch": true,
			})
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	card, err := db.GetPunchcard(d, id)
	require.NoError(t, err)
	assert.Zero(t, card.MarkCount(), "failed punches must not persist")
}

func TestPunchUnknownCard(t *testing.T) {
	ts, _ := openServer(t)

	resp := doJSON(t, ts.Client(), http.MethodPut, ts.URL+"/punchcard/nope/punch", map[string]any{
		"month": 1, "day": 1, "punch": true,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdatePartialPatch(t *testing.T) {
	ts, d := openServer(t)

	id := createCard(t, ts, 2024, "reading")

	resp := doJSON(t, ts.Client(), http.MethodPut, fmt.Sprintf("%s/punchcard/%s/", ts.URL, id), map[string]any{
		"label": "more reading",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	card, err := db.GetPunchcard(d, id)
	require.NoError(t, err)
	assert.Equal(t, "more reading", card.Label)
	assert.Equal(t, 2024, card.Year, "omitted fields stay unchanged")

	resp = doJSON(t, ts.Client(), http.MethodPut, fmt.Sprintf("%s/punchcard/%s/", ts.URL, id), map[string]any{
		"year": 2025,
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	card, err = db.GetPunchcard(d, id)
	require.NoError(t, err)
	assert.Equal(t, 2025, card.Year)
	assert.Equal(t, "more reading", card.Label)
}

func TestUpdateUnknownCard(t *testing.T) {
	ts, _ := openServer(t)

	resp := doJSON(t, ts.Client(), http.MethodPut, ts.URL+"/punchcard/nope/", map[string]any{
		"label": "x",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteCard(t *testing.T) {
	ts, d := openServer(t)

	id := createCard(t, ts, 2024, "reading")

	resp := doJSON(t, ts.Client(), http.MethodDelete, fmt.Sprintf("%s/punchcard/%s/", ts.URL, id), nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err := db.GetPunchcard(d, id)
	assert.ErrorIs(t, err, db.ErrNotFound)

	// deleting again is still ok
	resp = doJSON(t, ts.Client(), http.MethodDelete, fmt.Sprintf("%s/punchcard/%s/", ts.URL, id), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPunchcardPage(t *testing.T) {
	ts, _ := openServer(t)

	createCard(t, ts, 2024, "reading")
	createCard(t, ts, 2023, "running")

	resp, err := ts.Client().Get(ts.URL + "/punchcard")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	body := buf.String()

	// latest year is selected by default
	assert.Contains(t, body, "reading")
	assert.NotContains(t, body, "running")
	assert.Contains(t, body, "?year=2023")

	resp, err = ts.Client().Get(ts.URL + "/punchcard?year=2023")
	require.NoError(t, err)
	defer resp.Body.Close()

	buf.Reset()
	buf.ReadFrom(resp.Body)
	assert.Contains(t, buf.String(), "running")
}

func TestAuthGating(t *testing.T) {
	ts, _ := setupTestServer(t, session.Config{
		Username: "admin",
		Password: "hunter2",
		Secret:   "test-secret",
		Duration: time.Hour,
	})

	client := ts.Client()
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	// page loads bounce to login
	resp, err := client.Get(ts.URL + "/punchcard")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	// mutations fail with 401
	resp = doJSON(t, client, http.MethodPost, ts.URL+"/punchcard/", map[string]any{"year": 2024})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// bad credentials
	resp, err = client.PostForm(ts.URL+"/login", url.Values{
		"username": {"admin"}, "password": {"wrong"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// good credentials set the session cookie
	resp, err = client.PostForm(ts.URL+"/login", url.Values{
		"username": {"admin"}, "password": {"hunter2"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "login must set the session cookie")

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/punchcard", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)

	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogoutClearsCookie(t *testing.T) {
	ts, _ := setupTestServer(t, session.Config{
		Username: "admin",
		Password: "hunter2",
		Secret:   "test-secret",
		Duration: time.Hour,
	})

	client := ts.Client()
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := client.Post(ts.URL+"/logout", "application/x-www-form-urlencoded", strings.NewReader(""))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Less(t, cookie.MaxAge, 0, "logout must expire the cookie")
}

func TestRateLimit(t *testing.T) {
	d, err := db.Setup(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	p, err := pages.New()
	require.NoError(t, err)

	c := testConfig()
	c.RateLimit.RequestsPerSecond = 1

	mux, err := Setup(context.Background(), c, d, session.New(session.Config{Secret: "s", Duration: time.Hour}), p)
	require.NoError(t, err)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	statuses := make(map[int]int)
	for range 5 {
		resp, err := ts.Client().Get(ts.URL + "/robots.txt")
		require.NoError(t, err)
		resp.Body.Close()
		statuses[resp.StatusCode]++
	}

	assert.Positive(t, statuses[http.StatusTooManyRequests], "burst past the limit must see 429s")
}
