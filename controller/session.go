package controller

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type loginReq struct {
	Token string `json:"token" form:"token" validate:"required"`
}

func (ctrl *controller) sessionInit(e *echo.Echo) {
	e.GET("/session", ctrl.loginForm, csrfMiddleware(), FlashLoader)
	e.POST("/session", ctrl.login, formCSRFMiddleware())
	e.DELETE("/session", ctrl.logout)
	e.POST("/logout", ctrl.logout, csrfMiddleware())
}

func (ctrl *controller) loginForm(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", ctrl.defaultResponseMap(c, "Sign in"))
}

// login exchanges an API token for a cookie session. The session gets a
// fresh table view.
func (ctrl *controller) login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return ErrInvalid(err, "invalid payload")
	}
	req.Token = strings.TrimSpace(req.Token)
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	rec, err := ctrl.model.ValidateAPIToken(ctx, req.Token)
	if err != nil {
		if wantsHTML(c.Request()) {
			_ = AddFlash(c, "error", "Sign in failed. Please check your token.")
			return c.Redirect(http.StatusSeeOther, "/session")
		}
		return ErrUnauthorized(err)
	}
	user, err := ctrl.model.GetUserByID(ctx, rec.UserID)
	if err != nil {
		return ErrUnauthorized(err)
	}
	if _, err := user.ViewerRole(); err != nil {
		return ErrForbidden(err, "Your account has no valid role.")
	}

	sw, err := LoadSession(c)
	if err != nil {
		return ErrInternal(err)
	}
	if old, ok := sw.Values()[sessViewID].(string); ok && old != "" {
		ctrl.views.drop("session:" + old)
	}
	sw.Values()[sessUserID] = user.ID
	sw.Values()[sessViewID] = uuid.NewString()
	if err := sw.Save(); err != nil {
		return ErrInternal(err)
	}
	if l, ok := c.Get("logger").(*slog.Logger); ok {
		l.Info("session created", "user_id", user.ID)
	}

	if wantsHTML(c.Request()) {
		return c.Redirect(http.StatusSeeOther, "/leads")
	}
	return respond(c, http.StatusOK, APIUser{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role})
}

// logout drops the session and its table view.
func (ctrl *controller) logout(c echo.Context) error {
	sw, err := LoadSession(c)
	if err != nil {
		return ErrInternal(err)
	}
	if viewID, ok := sw.Values()[sessViewID].(string); ok && viewID != "" {
		ctrl.views.drop("session:" + viewID)
	}
	if err := ClearSession(c); err != nil {
		return ErrInternal(err)
	}
	if c.Request().Method == http.MethodPost {
		return c.Redirect(http.StatusSeeOther, "/session")
	}
	return c.NoContent(http.StatusNoContent)
}
