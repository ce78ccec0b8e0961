package controller

import (
	"net/http"
	"strings"

	"github.com/billingcat/leadboard/leadtable"
	"github.com/go-playground/form/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// leadsForm is posted by the search box and the pager of the HTML table.
type leadsForm struct {
	Query *string `form:"query" validate:"omitempty,max=500"`
	Page  *int    `form:"page" validate:"omitempty,min=0"`
}

var formDecoder = form.NewDecoder()

func csrfMiddleware() echo.MiddlewareFunc {
	return csrfWithSkipper(nil)
}

// formCSRFMiddleware checks the token on browser form posts only. Other
// content types cannot be sent cross-site without a CORS preflight.
func formCSRFMiddleware() echo.MiddlewareFunc {
	return csrfWithSkipper(func(c echo.Context) bool {
		ct := c.Request().Header.Get(echo.HeaderContentType)
		return !strings.HasPrefix(ct, echo.MIMEApplicationForm) && !strings.HasPrefix(ct, echo.MIMEMultipartForm)
	})
}

func csrfWithSkipper(skipper middleware.Skipper) echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		Skipper:        skipper,
		TokenLength:    32,
		TokenLookup:    "form:csrf,header:X-CSRF-Token",
		CookieName:     "csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
	})
}

func (ctrl *controller) leadsPageInit(e *echo.Echo) {
	g := e.Group("/leads", csrfMiddleware(), ctrl.authMiddleware, FlashLoader)
	g.GET("", ctrl.leadsPage)
	g.POST("", ctrl.leadsPagePost)
}

func (ctrl *controller) leadsPage(c echo.Context) error {
	return ctrl.withView(c, selectedUserParam(c), func(v *leadtable.View) error {
		m := ctrl.defaultResponseMap(c, "Leads")
		m["table"] = v.Render(ctrl.now())
		return c.Render(http.StatusOK, "leads.html", m)
	})
}

// leadsPagePost applies a search or a page change and redirects back to
// the table. A search wins over a page change.
func (ctrl *controller) leadsPagePost(c echo.Context) error {
	if err := c.Request().ParseForm(); err != nil {
		return ErrInvalid(err, "Error parsing form data")
	}
	var lf leadsForm
	if err := formDecoder.Decode(&lf, c.Request().Form); err != nil {
		return ErrInvalid(err, "Error decoding form data")
	}
	if err := c.Validate(&lf); err != nil {
		return err
	}
	err := ctrl.withView(c, nil, func(v *leadtable.View) error {
		switch {
		case lf.Query != nil:
			v.OnSearchChange(*lf.Query)
		case lf.Page != nil:
			v.OnPageChange(*lf.Page)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/leads")
}
