package controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/billingcat/leadboard/leadsource"
	"github.com/billingcat/leadboard/leadtable"
	"github.com/labstack/echo/v4"
)

type searchReq struct {
	Query string `json:"query" form:"query" validate:"max=500"`
}

type pageReq struct {
	Page *int `json:"page" form:"page" validate:"required,min=0"`
}

// invalidator is implemented by caching sources.
type invalidator interface {
	Invalidate(ctx context.Context, q leadsource.Query) error
}

// withView locks the caller's view, makes sure it holds the leads for the
// caller's role and selected user and runs fn on it. selectedUserID nil
// keeps the current selection.
func (ctrl *controller) withView(c echo.Context, selectedUserID *string, fn func(v *leadtable.View) error) error {
	user := currentUser(c)
	if user == nil {
		return ErrUnauthorized(errNoCredentials)
	}
	role, err := user.ViewerRole()
	if err != nil {
		return ErrForbidden(err, "Your account has no valid role.")
	}

	entry := ctrl.views.get(viewKey(c), role, ctrl.now())
	entry.mu.Lock()
	defer entry.mu.Unlock()

	v := entry.view
	sel := v.SelectedUserID()
	if selectedUserID != nil {
		sel = *selectedUserID
	}
	if !entry.loaded || v.Role() != role || sel != v.SelectedUserID() {
		v.SetViewer(role, sel)
		entry.loaded = false
		if err := ctrl.load(c.Request().Context(), v); err != nil {
			return err
		}
		entry.loaded = true
	}
	return fn(v)
}

// load fetches the lead list for the view's viewer. On failure the view
// keeps its previous leads.
func (ctrl *controller) load(ctx context.Context, v *leadtable.View) error {
	leads, err := ctrl.source.FetchLeads(ctx, leadsource.Query{Role: v.Role(), SelectedUserID: v.SelectedUserID()})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return ErrUpstream(fmt.Errorf("cannot fetch leads: %w", err))
	}
	v.SetLeads(leads)
	return nil
}

func selectedUserParam(c echo.Context) *string {
	if !c.QueryParams().Has("selectedUserId") {
		return nil
	}
	s := c.QueryParam("selectedUserId")
	return &s
}

func (ctrl *controller) renderTable(c echo.Context, v *leadtable.View) error {
	return respond(c, http.StatusOK, v.Render(ctrl.now()))
}

func (ctrl *controller) apiTableGet(c echo.Context) error {
	return ctrl.withView(c, selectedUserParam(c), func(v *leadtable.View) error {
		return ctrl.renderTable(c, v)
	})
}

func (ctrl *controller) apiTableSearch(c echo.Context) error {
	var req searchReq
	if err := c.Bind(&req); err != nil {
		return ErrInvalid(err, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	return ctrl.withView(c, nil, func(v *leadtable.View) error {
		v.OnSearchChange(req.Query)
		return ctrl.renderTable(c, v)
	})
}

func (ctrl *controller) apiTablePage(c echo.Context) error {
	var req pageReq
	if err := c.Bind(&req); err != nil {
		return ErrInvalid(err, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	return ctrl.withView(c, nil, func(v *leadtable.View) error {
		v.OnPageChange(*req.Page)
		return ctrl.renderTable(c, v)
	})
}

func (ctrl *controller) apiTableRefresh(c echo.Context) error {
	return ctrl.withView(c, selectedUserParam(c), func(v *leadtable.View) error {
		ctx := c.Request().Context()
		if inv, ok := ctrl.source.(invalidator); ok {
			q := leadsource.Query{Role: v.Role(), SelectedUserID: v.SelectedUserID()}
			if err := inv.Invalidate(ctx, q); err != nil {
				ctrl.logger.Warn("cannot invalidate lead cache", "error", err)
			}
		}
		if err := ctrl.load(ctx, v); err != nil {
			return err
		}
		return ctrl.renderTable(c, v)
	})
}

func (ctrl *controller) apiTableExport(c echo.Context) error {
	return ctrl.withView(c, selectedUserParam(c), func(v *leadtable.View) error {
		now := ctrl.now()
		var buf bytes.Buffer
		if err := WriteLeadsXLSX(&buf, v.Filtered(), v.Role(), now); err != nil {
			return ErrInternal(err)
		}
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="leads-%s.xlsx"`, now.UTC().Format("2006-01-02")))
		return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
	})
}

// apiMe returns the authenticated user.
func (ctrl *controller) apiMe(c echo.Context) error {
	u := currentUser(c)
	return respond(c, http.StatusOK, APIUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
}
