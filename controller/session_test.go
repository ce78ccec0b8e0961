package controller

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func cookieNamed(rec interface{ Result() *http.Response }, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSession_LoginLogout(t *testing.T) {
	env := setupTestServer(t, nil)
	tok := env.token(t, env.data.SalesExecutive)

	rec := env.do(http.MethodPost, "/session", `{"token":"`+tok+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
	sess := cookieNamed(rec, sessionName)
	if sess == nil {
		t.Fatal("no session cookie")
	}

	tbl := decodeTable(t, env.do(http.MethodGet, "/api/v1/leads/table", "", withCookies([]*http.Cookie{sess})))
	if tbl.Role != "sales_executive" || len(tbl.Rows) != 3 {
		t.Errorf("role = %q rows = %d", tbl.Role, len(tbl.Rows))
	}
	decodeTable(t, env.do(http.MethodPost, "/api/v1/leads/table/search", `{"query":"initech"}`, withCookies([]*http.Cookie{sess})))
	tbl = decodeTable(t, env.do(http.MethodGet, "/api/v1/leads/table", "", withCookies([]*http.Cookie{sess})))
	if len(tbl.Rows) != 1 {
		t.Errorf("session view lost the search: %d rows", len(tbl.Rows))
	}

	rec = env.do(http.MethodDelete, "/session", "", withCookies([]*http.Cookie{sess}))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", rec.Code)
	}
	cleared := cookieNamed(rec, sessionName)
	if cleared == nil || cleared.MaxAge >= 0 {
		t.Fatalf("logout must expire the cookie, got %+v", cleared)
	}
	rec = env.do(http.MethodGet, "/api/v1/leads/table", "", withCookies([]*http.Cookie{cleared}))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("after logout status = %d, want 401", rec.Code)
	}
}

func TestSession_LoginRejected(t *testing.T) {
	env := setupTestServer(t, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing token", `{}`, http.StatusBadRequest},
		{"unknown token", `{"token":"zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/session", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

// formLogin signs in through the HTML form, including its csrf token.
func (env *testEnv) formLogin(t *testing.T, tok string) *httptest.ResponseRecorder {
	t.Helper()
	formPage := env.do(http.MethodGet, "/session", "", header(echo.HeaderAccept, "text/html"))
	csrf := cookieNamed(formPage, "csrf")
	if csrf == nil {
		t.Fatal("sign-in form sets no csrf cookie")
	}
	if !strings.Contains(formPage.Body.String(), csrf.Value) {
		t.Error("sign-in form does not carry the csrf token")
	}
	form := url.Values{"token": {tok}, "csrf": {csrf.Value}}
	return env.doReader(http.MethodPost, "/session", strings.NewReader(form.Encode()),
		header(echo.HeaderContentType, echo.MIMEApplicationForm),
		header(echo.HeaderAccept, "text/html"),
		withCookies([]*http.Cookie{csrf}))
}

func TestSession_FormLoginNeedsCSRF(t *testing.T) {
	env := setupTestServer(t, nil)
	tok := env.token(t, env.data.Analyst)

	form := url.Values{"token": {tok}}
	rec := env.doReader(http.MethodPost, "/session", strings.NewReader(form.Encode()),
		header(echo.HeaderContentType, echo.MIMEApplicationForm))
	if rec.Code != http.StatusBadRequest && rec.Code != http.StatusForbidden {
		t.Errorf("form login without csrf: status = %d, want 400 or 403", rec.Code)
	}

	forged := env.doReader(http.MethodPost, "/session", strings.NewReader(url.Values{"token": {tok}, "csrf": {"forged"}}.Encode()),
		header(echo.HeaderContentType, echo.MIMEApplicationForm),
		withCookies([]*http.Cookie{{Name: "csrf", Value: "different"}}))
	if forged.Code != http.StatusForbidden {
		t.Errorf("form login with a forged csrf token: status = %d, want 403", forged.Code)
	}

	ok := env.formLogin(t, tok)
	if ok.Code != http.StatusSeeOther || ok.Header().Get(echo.HeaderLocation) != "/leads" {
		t.Errorf("form login with csrf: status = %d location = %q", ok.Code, ok.Header().Get(echo.HeaderLocation))
	}
}

func TestLeadsPage_HTML(t *testing.T) {
	env := setupTestServer(t, nil)

	rec := env.do(http.MethodGet, "/leads", "", header(echo.HeaderAccept, "text/html"))
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != "/session" {
		t.Fatalf("anonymous: status = %d location = %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}

	tok := env.token(t, env.data.Analyst)
	login := env.formLogin(t, tok)
	if login.Code != http.StatusSeeOther || login.Header().Get(echo.HeaderLocation) != "/leads" {
		t.Fatalf("form login: status = %d location = %q", login.Code, login.Header().Get(echo.HeaderLocation))
	}
	sess := cookieNamed(login, sessionName)

	page := env.do(http.MethodGet, "/leads", "", withCookies([]*http.Cookie{sess}), header(echo.HeaderAccept, "text/html"))
	if page.Code != http.StatusOK {
		t.Fatalf("page status = %d, body = %s", page.Code, page.Body.String())
	}
	body := page.Body.String()
	for _, want := range []string{"Acme Corp", "Globex", "Initech", "Sales Executive", "Not Assigned", "Showing 1 to 3 of 3"} {
		if !strings.Contains(body, want) {
			t.Errorf("page misses %q", want)
		}
	}
	csrf := cookieNamed(page, "csrf")
	if csrf == nil {
		t.Fatal("no csrf cookie")
	}

	search := url.Values{"query": {"globex"}, "csrf": {csrf.Value}}
	post := env.doReader(http.MethodPost, "/leads", strings.NewReader(search.Encode()),
		header(echo.HeaderContentType, echo.MIMEApplicationForm),
		header(echo.HeaderAccept, "text/html"),
		withCookies([]*http.Cookie{sess, csrf}))
	if post.Code != http.StatusSeeOther {
		t.Fatalf("search post status = %d, body = %s", post.Code, post.Body.String())
	}
	page = env.do(http.MethodGet, "/leads", "", withCookies([]*http.Cookie{sess}), header(echo.HeaderAccept, "text/html"))
	body = page.Body.String()
	if !strings.Contains(body, "Globex") || strings.Contains(body, "Initech") {
		t.Errorf("search not applied to the page")
	}

	// without the csrf token the form is rejected
	bad := env.doReader(http.MethodPost, "/leads", strings.NewReader("query=x"),
		header(echo.HeaderContentType, echo.MIMEApplicationForm),
		withCookies([]*http.Cookie{sess}))
	if bad.Code != http.StatusBadRequest && bad.Code != http.StatusForbidden {
		t.Errorf("post without csrf: status = %d", bad.Code)
	}
}
