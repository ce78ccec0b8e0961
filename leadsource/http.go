package leadsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/billingcat/leadboard/leadtable"
)

// Config holds the upstream API location and credentials.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// UpstreamError is returned for non-2xx upstream responses.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream responded %d: %s", e.Status, e.Body)
}

// HTTPSource fetches leads from the upstream REST API.
type HTTPSource struct {
	cfg    Config
	client *http.Client
}

// NewHTTPSource returns a source for cfg. A nil client gets a default one
// with cfg.Timeout.
func NewHTTPSource(cfg Config, client *http.Client) (*HTTPSource, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("upstream base URL is empty")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid upstream base URL: %w", err)
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPSource{cfg: cfg, client: client}, nil
}

// leadsEnvelope is the alternative response shape {"leads": [...]}.
type leadsEnvelope struct {
	Leads []leadtable.Lead `json:"leads"`
}

// FetchLeads calls GET {BaseURL}/leads?role=..&userId=..
func (s *HTTPSource) FetchLeads(ctx context.Context, q Query) ([]leadtable.Lead, error) {
	params := url.Values{}
	if q.Role != "" {
		params.Set("role", string(q.Role))
	}
	if q.SelectedUserID != "" {
		params.Set("userId", q.SelectedUserID)
	}
	u := strings.TrimRight(s.cfg.BaseURL, "/") + "/leads"
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch leads: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read leads response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(snippet)}
	}
	return decodeLeads(body)
}

func decodeLeads(body []byte) ([]leadtable.Lead, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []leadtable.Lead{}, nil
	}
	if body[0] == '{' {
		var env leadsEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("cannot decode leads: %w", err)
		}
		if env.Leads == nil {
			env.Leads = []leadtable.Lead{}
		}
		return env.Leads, nil
	}
	var leads []leadtable.Lead
	if err := json.Unmarshal(body, &leads); err != nil {
		return nil, fmt.Errorf("cannot decode leads: %w", err)
	}
	return leads, nil
}
