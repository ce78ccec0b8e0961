package controller

import (
	"embed"
	"encoding/gob"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/billingcat/leadboard/leadsource"
	"github.com/billingcat/leadboard/model"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/cors"
)

//go:embed views/*.html
var viewsFS embed.FS

type Flash struct {
	Kind    string // "success" | "error" | "warning" | "info"
	Message string
}

// FlashLoader pulls the flashes out of the session (clearing them) and puts
// them into the echo context.
func FlashLoader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sw, err := LoadSession(c)
		if err != nil {
			return next(c)
		}
		raw := sw.sess.Flashes()
		if len(raw) > 0 {
			_ = sw.Save()
		}
		flashes := make([]Flash, 0, len(raw))
		for _, it := range raw {
			if f, ok := it.(Flash); ok {
				flashes = append(flashes, f)
			}
		}
		c.Set("flashes", flashes)
		return next(c)
	}
}

// AddFlash stores a flash message in the session.
func AddFlash(c echo.Context, kind, msg string) error {
	sw, err := LoadSession(c)
	if err != nil {
		return err
	}
	sw.AddFlash(Flash{Kind: kind, Message: msg})
	if err := sw.Save(); err != nil {
		return ErrInvalid(err, "cannot save session")
	}
	return nil
}

type appError struct {
	Code   string // stable internal error code for ops and support
	Status int    // HTTP status
	Err    error  // original error, never sent to the client
	Public string // safe text for users (optional)
}

func (e *appError) Error() string { return fmt.Sprintf("%s: %v", e.Code, e.Err) }
func (e *appError) Unwrap() error { return e.Err }

func ErrNotFound(err error) *appError {
	return &appError{Code: "NOT_FOUND", Status: http.StatusNotFound, Err: err}
}
func ErrInvalid(err error, public string) *appError {
	return &appError{Code: "INVALID_INPUT", Status: http.StatusBadRequest, Err: err, Public: public}
}
func ErrInternal(err error) *appError {
	return &appError{Code: "INTERNAL", Status: http.StatusInternalServerError, Err: err}
}
func ErrUnauthorized(err error) *appError {
	return &appError{Code: "UNAUTHORIZED", Status: http.StatusUnauthorized, Err: err}
}
func ErrForbidden(err error, public string) *appError {
	return &appError{Code: "FORBIDDEN", Status: http.StatusForbidden, Err: err, Public: public}
}

// ErrUpstream reports a failed lead fetch.
func ErrUpstream(err error) *appError {
	ae := &appError{Code: "UPSTREAM", Status: http.StatusBadGateway, Err: err, Public: "The lead service is not available. Please try again later."}
	var ue *leadsource.UpstreamError
	if errors.As(err, &ue) && (ue.Status == http.StatusUnauthorized || ue.Status == http.StatusForbidden) {
		ae.Public = "The lead service rejected our credentials."
	}
	return ae
}

// The Template interface implements rendering functionality for echo.
type Template struct {
	templates *template.Template
}

// Render is the echo way of rendering templates.
func (t *Template) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

// Options configures NewController.
type Options struct {
	Store  *model.Store
	Source leadsource.Source
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type controller struct {
	model  *model.Store
	source leadsource.Source
	views  *viewRegistry
	logger *slog.Logger
	now    func() time.Time
}

func (ctrl *controller) defaultResponseMap(c echo.Context, title string) map[string]any {
	responseMap := map[string]any{
		"title":    title,
		"loggedin": false,
		"path":     c.Request().URL.Path,
	}
	if flashes, ok := c.Get("flashes").([]Flash); ok {
		responseMap["flashes"] = flashes
	} else {
		responseMap["flashes"] = []Flash{}
	}
	if t, ok := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string); ok {
		responseMap["CSRFToken"] = t
	}
	if u := currentUser(c); u != nil {
		responseMap["loggedin"] = true
		responseMap["fullname"] = u.Name
		responseMap["email"] = u.Email
		responseMap["role"] = u.Role
	}
	return responseMap
}

// NewLogger returns the process logger: text at debug level in development,
// JSON at info otherwise.
func NewLogger(mode string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if mode == "development" {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// NewController builds the echo server with all routes. The caller starts it.
func NewController(opts Options) (*echo.Echo, error) {
	if opts.Store == nil || opts.Store.Config == nil {
		return nil, errors.New("controller needs a store with config")
	}
	if opts.Source == nil {
		return nil, errors.New("controller needs a lead source")
	}
	cfg := opts.Store.Config
	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(cfg.Mode, nil)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	gob.Register(Flash{})

	var templateFunc = template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"seq": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i
			}
			return out
		},
	}
	tmpl := &Template{
		templates: template.Must(template.New("t").Funcs(templateFunc).ParseFS(viewsFS, "views/*.html")),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.BodyLimit("2M"))
	e.Use(middleware.RequestID()) // adds X-Request-ID
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisablePrintStack: true,
	}))
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(echo.WrapMiddleware(cors.New(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowCredentials: true,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept", "X-CSRF-Token"},
		}).Handler))
	}
	e.Use(requestLogger(logger))
	e.HTTPErrorHandler = errorHandler(logger)

	secret := []byte(cfg.CookieSecret)
	if len(secret) == 0 {
		logger.Warn("no cookie secret configured, sessions will not survive a restart")
		secret = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(secret)
	store.Options = cookieOptions(0, CookieCfg{IsProd: cfg.Mode == "production"})
	e.Use(session.Middleware(store))

	e.Renderer = tmpl
	ctrl := &controller{
		model:  opts.Store,
		source: opts.Source,
		views:  newViewRegistry(cfg.PageSize, time.Hour),
		logger: logger,
		now:    now,
	}
	e.Use(ctrl.CookieCfgMiddleware)

	e.GET("/", func(c echo.Context) error { return c.Redirect(http.StatusSeeOther, "/leads") })
	ctrl.sessionInit(e)
	ctrl.leadsPageInit(e)
	ctrl.apiInit(e)
	return e, nil
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()
			res := c.Response()
			rid := res.Header().Get(echo.HeaderXRequestID)

			reqLogger := logger.With(
				"request_id", rid,
			).WithGroup("http").With(
				"method", req.Method,
				"path", req.URL.Path,
				"remote_ip", c.RealIP(),
			)
			c.Set("logger", reqLogger)

			err := next(c)
			if err != nil {
				// the error handler sets the final status
				c.Error(err)
			}

			if shouldSkipAccessLog(c) {
				return nil
			}
			attrs := []any{
				"status", res.Status,
				"latency_ms", float64(time.Since(start).Microseconds()) / 1000.0,
			}
			switch {
			case res.Status >= 500:
				reqLogger.Error("http_request", attrs...)
			case res.Status >= 400:
				reqLogger.Warn("http_request", attrs...)
			default:
				reqLogger.Info("http_request", attrs...)
			}
			return nil
		}
	}
}

// errorHandler logs everything internally and only sends a safe payload.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		l, _ := c.Get("logger").(*slog.Logger)
		if l == nil {
			l = logger
		}

		var ae *appError
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
		case errors.As(err, &he):
			// only 4xx messages reach the user, 5xx are masked
			public := ""
			if he.Code >= 400 && he.Code < 500 {
				public = fmt.Sprint(he.Message)
			}
			ae = &appError{
				Code:   httpStatusToCode(he.Code),
				Status: he.Code,
				Err:    fmt.Errorf("%v", he.Message),
				Public: public,
			}
		default:
			ae = ErrInternal(err)
		}

		if ae.Err == nil {
			ae.Err = errors.New(http.StatusText(ae.Status))
		}
		attrs := []any{
			"status", ae.Status,
			"code", ae.Code,
			"error", ae.Err.Error(),
		}
		if ae.Status >= 500 {
			l.Error("handler_error", attrs...)
		} else {
			l.Warn("handler_error", attrs...)
		}

		if wantsHTML(c.Request()) && c.Request().Method == http.MethodGet {
			_ = c.Render(ae.Status, "error.html", map[string]any{
				"title":   "Error",
				"message": userMessage(ae),
				"code":    ae.Code,
				"flashes": []Flash{},
			})
			return
		}
		if wantsHTML(c.Request()) {
			kind := "error"
			if ae.Status >= 400 && ae.Status < 500 {
				kind = "warning"
			}
			if err = AddFlash(c, kind, userMessage(ae)); err != nil {
				l.Error("cannot add flash message", "error", err)
			}
			target := c.Request().Referer()
			if target == "" {
				target = "/leads"
			}
			_ = c.Redirect(http.StatusSeeOther, target)
			return
		}

		_ = respond(c, ae.Status, &APIError{
			Code:      ae.Code,
			Message:   userMessage(ae),
			RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
		})
	}
}

func userMessage(ae *appError) string {
	if ae.Public != "" {
		return ae.Public
	}
	switch ae.Code {
	case "INVALID_INPUT":
		return "The input is invalid. Please check and try again."
	case "NOT_FOUND":
		return "The requested resource was not found."
	case "UNAUTHORIZED":
		return "Authentication required."
	case "FORBIDDEN":
		return "You are not allowed to do this."
	case "METHOD_NOT_ALLOWED":
		return "This HTTP method is not supported here."
	default:
		return "An error occurred. Please try again later."
	}
}

func wantsHTML(r *http.Request) bool { return strings.Contains(r.Header.Get("Accept"), "text/html") }

func httpStatusToCode(status int) string {
	switch status {
	case 400:
		return "INVALID_INPUT"
	case 401:
		return "UNAUTHORIZED"
	case 403:
		return "FORBIDDEN"
	case 404:
		return "NOT_FOUND"
	case 405:
		return "METHOD_NOT_ALLOWED"
	case 413:
		return "TOO_LARGE"
	default:
		if status >= 500 {
			return "INTERNAL"
		}
		return "ERROR"
	}
}

func shouldSkipAccessLog(c echo.Context) bool {
	p := c.Request().URL.Path
	switch p {
	case "/favicon.ico", "/robots.txt", "/metrics":
		return true
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".css", ".js", ".map", ".png", ".jpg", ".jpeg", ".svg", ".ico", ".webp":
		return true
	}
	m := c.Request().Method
	return m == http.MethodHead || m == http.MethodOptions
}
