// Package session issues and verifies the signed, time-limited tokens
// that gate punchcard mutation endpoints. Tokens are stateless: there
// is no server-side session store, and logout only clears the cookie
// held by the client.
package session

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// CookieName is the cookie carrying the session token.
const CookieName = "punchcard_session"

const tokenType = "session"

var ErrInvalidCredentials = errors.New("invalid credentials")

type Config struct {
	Username string
	Password string
	Secret   string
	Duration time.Duration
	Secure   bool
}

type Auth struct {
	cfg Config
}

func New(cfg Config) *Auth {
	return &Auth{cfg: cfg}
}

// Disabled reports whether no credential is configured for this
// deployment, in which case every request is treated as authenticated.
func (a *Auth) Disabled() bool {
	return a.cfg.Username == "" && a.cfg.Password == ""
}

// Login checks the submitted credentials and mints a token on success.
// Both fields are compared in constant time, and a mismatch in either
// yields the same ErrInvalidCredentials.
func (a *Auth) Login(username, password string) (string, error) {
	userGood := subtle.ConstantTimeCompare([]byte(username), []byte(a.cfg.Username))
	passGood := subtle.ConstantTimeCompare([]byte(password), []byte(a.cfg.Password))
	if userGood&passGood != 1 {
		return "", ErrInvalidCredentials
	}

	return a.IssueToken(time.Now())
}

// IssueToken mints a signed token expiring at now plus the configured
// session duration.
func (a *Auth) IssueToken(now time.Time) (string, error) {
	tok, err := jwt.NewBuilder().
		Claim("type", tokenType).
		IssuedAt(now).
		Expiration(now.Add(a.cfg.Duration)).
		Build()
	if err != nil {
		return "", err
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(a.cfg.Secret)))
	if err != nil {
		return "", err
	}

	return string(signed), nil
}

// VerifyToken fails closed: a bad signature, malformed payload, wrong
// type claim or past expiry all return false.
func (a *Auth) VerifyToken(token string) bool {
	tok, err := jwt.Parse(
		[]byte(token),
		jwt.WithKey(jwa.HS256, []byte(a.cfg.Secret)),
		jwt.WithValidate(true),
	)
	if err != nil {
		return false
	}

	typ, ok := tok.Get("type")
	if !ok {
		return false
	}

	return typ == tokenType
}

// Authorized reports whether the request may proceed: either auth is
// disabled entirely, or the request carries a cookie with a token that
// verifies.
func (a *Auth) Authorized(r *http.Request) bool {
	if a.Disabled() {
		return true
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}

	return a.VerifyToken(cookie.Value)
}

func (a *Auth) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.cfg.Duration.Seconds()),
		HttpOnly: true,
		Secure:   a.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *Auth) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
