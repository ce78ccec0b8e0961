package leadsource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/billingcat/leadboard/leadtable"
)

func TestHTTPSource_FetchLeads(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantLen  int
		wantErr  bool
		wantCode int
	}{
		{name: "array", status: 200, body: `[{"_id":"1","companyName":"Acme"},{"_id":"2","companyName":"Globex"}]`, wantLen: 2},
		{name: "envelope", status: 200, body: `{"leads":[{"_id":"1","companyName":"Acme"}]}`, wantLen: 1},
		{name: "empty envelope", status: 200, body: `{}`, wantLen: 0},
		{name: "null", status: 200, body: `null`, wantLen: 0},
		{name: "upstream error", status: 502, body: `bad gateway`, wantErr: true, wantCode: 502},
		{name: "garbage", status: 200, body: `<html>`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery, gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/leads" {
					http.NotFound(w, r)
					return
				}
				gotQuery = r.URL.RawQuery
				gotAuth = r.Header.Get("Authorization")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			src, err := NewHTTPSource(Config{BaseURL: srv.URL + "/", Token: "secret"}, srv.Client())
			if err != nil {
				t.Fatalf("NewHTTPSource failed: %v", err)
			}
			leads, err := src.FetchLeads(context.Background(), Query{Role: leadtable.RoleSalesExecutive, SelectedUserID: "42"})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if tt.wantCode != 0 {
					var ue *UpstreamError
					if !errors.As(err, &ue) || ue.Status != tt.wantCode {
						t.Errorf("err = %v, want UpstreamError %d", err, tt.wantCode)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchLeads failed: %v", err)
			}
			if len(leads) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(leads), tt.wantLen)
			}
			if leads == nil {
				t.Error("leads must not be nil")
			}
			if gotAuth != "Bearer secret" {
				t.Errorf("Authorization = %q", gotAuth)
			}
			if gotQuery != "role=sales_executive&userId=42" {
				t.Errorf("query = %q", gotQuery)
			}
		})
	}
}

func TestNewHTTPSource_EmptyURL(t *testing.T) {
	if _, err := NewHTTPSource(Config{}, nil); err == nil {
		t.Error("expected error for empty base URL")
	}
}
