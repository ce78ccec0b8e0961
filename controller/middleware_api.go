package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/billingcat/leadboard/model"
	"github.com/labstack/echo/v4"
)

type ctxKey string

const (
	ctxUser    ctxKey = "api_user"
	ctxViewKey ctxKey = "api_view_key"
	ctxTokenID ctxKey = "api_token_id"
)

var errNoCredentials = errors.New("no credentials")

// authenticate resolves the caller from the Authorization header or, when
// absent, from the cookie session. Token callers share one table view per
// token, session callers one per session.
func (ctrl *controller) authenticate(c echo.Context) error {
	ctx := c.Request().Context()
	if auth := c.Request().Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || (!strings.EqualFold(parts[0], "Bearer") && !strings.EqualFold(parts[0], "Api-Key")) {
			return &appError{Code: "UNAUTHORIZED", Status: http.StatusUnauthorized, Err: errors.New("bad authorization scheme"), Public: "Use Bearer or Api-Key"}
		}
		rec, err := ctrl.model.ValidateAPIToken(ctx, strings.TrimSpace(parts[1]))
		if err != nil {
			return ErrUnauthorized(err)
		}
		user, err := ctrl.model.GetUserByID(ctx, rec.UserID)
		if err != nil {
			return ErrUnauthorized(err)
		}
		c.Set(string(ctxUser), user)
		c.Set(string(ctxTokenID), rec.ID)
		c.Set(string(ctxViewKey), "token:"+strconv.FormatUint(uint64(rec.ID), 10))
		return nil
	}

	sw, err := LoadSession(c)
	if err != nil {
		return ErrInternal(err)
	}
	uid, _ := sw.Values()[sessUserID].(uint)
	viewID, _ := sw.Values()[sessViewID].(string)
	if uid == 0 || viewID == "" {
		return ErrUnauthorized(errNoCredentials)
	}
	user, err := ctrl.model.GetUserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return ErrUnauthorized(err)
		}
		return ErrInternal(err)
	}
	c.Set(string(ctxUser), user)
	c.Set(string(ctxViewKey), "session:"+viewID)
	return nil
}

// APIKeyAuthMiddleware guards the JSON API.
func (ctrl *controller) APIKeyAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := ctrl.authenticate(c); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// authMiddleware guards HTML pages; unauthenticated users are sent to the
// login form.
func (ctrl *controller) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := ctrl.authenticate(c); err != nil {
			var ae *appError
			if errors.As(err, &ae) && ae.Status == http.StatusUnauthorized {
				return c.Redirect(http.StatusSeeOther, "/session")
			}
			return err
		}
		return next(c)
	}
}

func currentUser(c echo.Context) *model.User {
	u, _ := c.Get(string(ctxUser)).(*model.User)
	return u
}

func viewKey(c echo.Context) string {
	k, _ := c.Get(string(ctxViewKey)).(string)
	return k
}
