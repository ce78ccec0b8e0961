package controller

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

type APIError struct {
	XMLName   struct{} `json:"-" xml:"error"`
	Code      string   `json:"code" xml:"code"`
	Message   string   `json:"message" xml:"message"`
	RequestID string   `json:"request_id,omitempty" xml:"request_id,omitempty"`
}

func wantsXML(c echo.Context) bool {
	if c.QueryParam("format") == "xml" {
		return true
	}
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, "application/xml") || strings.Contains(accept, "text/xml")
}

func respond(c echo.Context, status int, v any) error {
	if wantsXML(c) {
		return c.XML(status, v)
	}
	return c.JSON(status, v)
}

// ---- DTOs ----

type APIUser struct {
	ID    uint   `json:"id" xml:"id"`
	Name  string `json:"name" xml:"name"`
	Email string `json:"email" xml:"email"`
	Role  string `json:"role" xml:"role"`
}

type APIToken struct {
	ID         uint       `json:"id" xml:"id"`
	Name       string     `json:"name" xml:"name"`
	Prefix     string     `json:"prefix" xml:"prefix"`
	CreatedAt  time.Time  `json:"created_at" xml:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" xml:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" xml:"last_used_at,omitempty"`
	Disabled   bool       `json:"disabled" xml:"disabled"`
}

type APITokenList struct {
	XMLName    struct{}   `json:"-" xml:"tokens"`
	Items      []APIToken `json:"items" xml:"token"`
	NextCursor string     `json:"next_cursor,omitempty" xml:"next_cursor,omitempty"`
}

type APIStatusSlice struct {
	Status string `json:"status" xml:"status,attr"`
	Count  int64  `json:"count" xml:"count,attr"`
	// Share is the percentage of all leads, two decimal places.
	Share string `json:"share" xml:"share,attr"`
}

type APIMonthBar struct {
	Month string `json:"month" xml:"month,attr"`
	Count int64  `json:"count" xml:"count,attr"`
}

type APIDashboard struct {
	XMLName        struct{}         `json:"-" xml:"dashboard"`
	SelectedUserID string           `json:"selected_user_id,omitempty" xml:"selected_user_id,attr,omitempty"`
	Total          int64            `json:"total" xml:"total"`
	ByStatus       []APIStatusSlice `json:"by_status" xml:"by_status>slice"`
	ByMonth        []APIMonthBar    `json:"by_month" xml:"by_month>bar"`
}
