package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const sessionName = "session"

// Session keys.
const (
	sessUserID = "uid"
	sessViewID = "view"
)

// CookieCfg controls how the session cookie is scoped and secured.
type CookieCfg struct {
	IsProd       bool
	ShareSubdoms bool
	ParentDomain string
}

func cookieOptions(maxAge int, cfg CookieCfg) *sessions.Options {
	opts := &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if cfg.IsProd {
		opts.Secure = true
		if cfg.ShareSubdoms && cfg.ParentDomain != "" {
			opts.Domain = "." + cfg.ParentDomain
		}
	}
	return opts
}

// SessionWriter is a thin wrapper around gorilla/sessions that applies the
// cookie options consistently before saving.
type SessionWriter struct {
	sess *sessions.Session
	c    echo.Context
}

// LoadSession retrieves the session from the echo context. An invalid or
// outdated cookie is treated as an empty session.
func LoadSession(c echo.Context) (*SessionWriter, error) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		if !isRecoverableSessionError(err) {
			return nil, err
		}
		if l, ok := c.Get("logger").(*slog.Logger); ok {
			l.Debug("invalid session cookie, starting fresh", "error", err)
		}
	}
	return &SessionWriter{sess: sess, c: c}, nil
}

// Values gives access to the session data map.
func (sw *SessionWriter) Values() map[any]any {
	return sw.sess.Values
}

// AddFlash appends a flash message. Call Save afterwards.
func (sw *SessionWriter) AddFlash(v any) {
	sw.sess.AddFlash(v)
}

// Save persists the session back to the client.
func (sw *SessionWriter) Save() error {
	cfg, ok := sw.c.Get("cookiecfg").(CookieCfg)
	if !ok {
		cfg = CookieCfg{}
	}
	sw.sess.Options = cookieOptions(0, cfg)
	return sw.sess.Save(sw.c.Request(), sw.c.Response())
}

func isRecoverableSessionError(err error) bool {
	if err == nil {
		return false
	}
	if strings.Contains(err.Error(), "securecookie: the value is not valid") {
		return true
	}
	var scErr securecookie.Error
	return errors.As(err, &scErr)
}

// ClearSession invalidates the session cookie and clears all values.
func ClearSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil && !isRecoverableSessionError(err) {
		return err
	}
	if sess == nil {
		sess = sessions.NewSession(nil, sessionName)
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	if sess.Options == nil {
		sess.Options = &sessions.Options{Path: "/"}
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}
