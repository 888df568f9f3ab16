// Package supabase is a minimal client for the hosted project APIs used by
// simpatch: the REST (PostgREST) endpoint and the storage endpoint.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Err     string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Err
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("supabase: %d %s: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("supabase: %d: %s", e.Status, msg)
}

// NotFound reports whether the API answered 404. The storage API answers
// 400 with an embedded 404 status for missing objects.
func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound || (e.Status == http.StatusBadRequest && e.Code == "404")
}

// Conflict reports whether the object or row already exists.
func (e *APIError) Conflict() bool {
	return e.Status == http.StatusConflict || e.Code == "409" || e.Err == "Duplicate"
}

// Client talks to one Supabase project.
type Client struct {
	baseURL *url.URL
	key     string
	http    *http.Client
}

// NewClient creates a Client for the project at rawURL authenticated with key.
func NewClient(rawURL, key string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(rawURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid supabase url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid supabase url %q: scheme must be http or https", rawURL)
	}
	return &Client{
		baseURL: u,
		key:     key,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// Key returns the API key the client authenticates with.
func (c *Client) Key() string {
	return c.key
}

// NewRequest builds an authenticated request for the given path segments
// below the project URL.
func (c *Client) NewRequest(ctx context.Context, method string, query url.Values, body io.Reader, segments ...string) (*http.Request, error) {
	u := c.baseURL.JoinPath(segments...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	return req, nil
}

// Do sends req. Non-2xx responses are drained, closed and returned as *APIError.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(body) > 0 {
		var raw struct {
			Code       json.RawMessage `json:"code"`
			StatusCode string          `json:"statusCode"`
			Err        string          `json:"error"`
			Message    string          `json:"message"`
			Details    string          `json:"details"`
			Hint       string          `json:"hint"`
		}
		if json.Unmarshal(body, &raw) == nil {
			apiErr.Code = strings.Trim(string(raw.Code), `"`)
			if apiErr.Code == "" {
				apiErr.Code = raw.StatusCode
			}
			apiErr.Err = raw.Err
			apiErr.Message = raw.Message
			apiErr.Details = raw.Details
			apiErr.Hint = raw.Hint
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
	}
	return nil, apiErr
}

// DoJSON sends req and decodes a 2xx JSON body into out.
func (c *Client) DoJSON(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
