package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/billingcat/leadboard/model"
	"github.com/labstack/echo/v4"
)

type createTokenReq struct {
	Name      string     `json:"name" validate:"required,max=100"`
	ExpiresAt *time.Time `json:"expires_at"`
}
type createTokenResp struct {
	ID     uint   `json:"id" xml:"id"`
	Prefix string `json:"prefix" xml:"prefix"`
	Token  string `json:"token" xml:"token"` // shown once
}

func toAPIToken(t *model.APIToken) APIToken {
	return APIToken{
		ID:         t.ID,
		Name:       t.Name,
		Prefix:     t.TokenPrefix,
		CreatedAt:  t.CreatedAt,
		ExpiresAt:  t.ExpiresAt,
		LastUsedAt: t.LastUsedAt,
		Disabled:   t.Disabled,
	}
}

func (ctrl *controller) apiListTokens(c echo.Context) error {
	limit := 50
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 200 {
			return ErrInvalid(err, "limit must be between 1 and 200")
		}
		limit = n
	}
	rows, next, err := ctrl.model.ListAPITokensByUser(c.Request().Context(), currentUser(c).ID, limit, c.QueryParam("cursor"))
	if err != nil {
		return ErrInternal(err)
	}
	out := APITokenList{Items: make([]APIToken, len(rows)), NextCursor: next}
	for i := range rows {
		out.Items[i] = toAPIToken(&rows[i])
	}
	return respond(c, http.StatusOK, out)
}

func (ctrl *controller) apiCreateToken(c echo.Context) error {
	var req createTokenReq
	if err := c.Bind(&req); err != nil {
		return ErrInvalid(err, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(ctrl.now()) {
		return ErrInvalid(errors.New("expiry in the past"), "expires_at must be in the future")
	}
	token, rec, err := ctrl.model.CreateAPIToken(c.Request().Context(), currentUser(c).ID, req.Name, req.ExpiresAt)
	if err != nil {
		return ErrInternal(err)
	}
	return respond(c, http.StatusCreated, createTokenResp{
		ID: rec.ID, Prefix: rec.TokenPrefix, Token: token,
	})
}

func (ctrl *controller) apiRevokeToken(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return ErrInvalid(err, "invalid id")
	}
	if err := ctrl.model.RevokeAPIToken(c.Request().Context(), currentUser(c).ID, uint(id)); err != nil {
		if errors.Is(err, model.ErrTokenNotFound) {
			return ErrNotFound(err)
		}
		return ErrInternal(err)
	}
	ctrl.views.drop("token:" + strconv.FormatUint(id, 10))
	return c.NoContent(http.StatusNoContent)
}
