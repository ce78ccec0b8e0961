package controller

import (
	"github.com/labstack/echo/v4"
)

// CookieCfgMiddleware injects a CookieCfg into the echo context for each
// request, derived from the configured mode.
func (ctrl *controller) CookieCfgMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set("cookiecfg", CookieCfg{
			IsProd: ctrl.model.Config.Mode == "production",
		})
		return next(c)
	}
}
