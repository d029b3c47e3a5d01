// Package kpiggybank fetches raw interaction data blobs from the telemetry
// collector over HTTPS.
package kpiggybank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"kpi-report-service/internal/sessions/core/domain"
	"kpi-report-service/internal/sessions/core/ports"
)

// DefaultPath is where the collector serves interaction data.
const DefaultPath = "/wsapi/interaction_data"

// HTTPClient allows injecting test clients.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL string
	http    HTTPClient
}

func NewClient(baseURL string, httpClient HTTPClient) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

var _ ports.SessionFetcherPort = (*Client)(nil)

func (c *Client) endpoint(opts ports.FetchOptions) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("kpiggybank: bad base url: %w", err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultPath
	}
	q := u.Query()
	if opts.Start != nil {
		q.Set("start", strconv.FormatInt(*opts.Start, 10))
	}
	if opts.End != nil {
		q.Set("end", strconv.FormatInt(*opts.End, 10))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchSessions decodes the response array one element at a time, so only
// one blob is held in memory at once. A session is handed to fn only after
// it decoded completely. An element that is valid JSON but not a session is
// handed over with Malformed set; a broken transfer ends the fetch.
func (c *Client) FetchSessions(ctx context.Context, opts ports.FetchOptions, fn func(domain.RawSession) error) error {
	target, err := c.endpoint(opts)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("kpiggybank: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("kpiggybank: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("kpiggybank: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	dec := json.NewDecoder(resp.Body)
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("kpiggybank: read response: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return fmt.Errorf("kpiggybank: expected a json array, got %v", tok)
	}

	for i := 0; dec.More(); i++ {
		var blob json.RawMessage
		if err := dec.Decode(&blob); err != nil {
			return fmt.Errorf("kpiggybank: decode session %d: %w", i, err)
		}
		if err := fn(decodeSession(blob)); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("kpiggybank: truncated response: %w", err)
	}
	return nil
}

// decodeSession parses one array element. When the body does not fit, the
// id is still recovered if possible so the skip can be traced.
func decodeSession(blob json.RawMessage) domain.RawSession {
	var s domain.RawSession
	err := json.Unmarshal(blob, &s)
	if err == nil {
		return s
	}

	var head struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(blob, &head)
	return domain.RawSession{ID: head.ID, Malformed: err}
}
