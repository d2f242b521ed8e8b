// Package upstream encapsulates HTTP access to the atomic Users and
// Addresses services, absorbing their response-shape inconsistencies behind
// a uniform contract.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const maxBodyBytes = 8 << 20

// Client is a thin JSON client bound to one atomic service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	service    string
	tolerant   bool
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL of the atomic service, without a trailing slash.
	BaseURL string
	// Service names the upstream in errors and logs, e.g. "users".
	Service string
	// Timeout bounds every individual call.
	Timeout time.Duration
	// Tolerant enables the permissive re-parse for bodies that fail strict
	// JSON decoding (upstreams that serialize Python literals).
	Tolerant bool
}

// NewClient creates a client for one atomic service.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		service:    cfg.Service,
		tolerant:   cfg.Tolerant,
	}
}

// do executes one request and returns the decoded body. A non-2xx answer is
// surfaced as *StatusError; network-level failures come back wrapped with the
// operation name.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) (Document, error) {
	op := method + " " + path

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return Document{}, fmt.Errorf("%s %s: marshal request body: %w", c.service, op, err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return Document{}, fmt.Errorf("%s %s: create request: %w", c.service, op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("%s %s: request failed: %w", c.service, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Document{}, fmt.Errorf("%s %s: read response body: %w", c.service, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Document{}, &StatusError{
			Service:    c.service,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		}
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return Document{}, nil
	}

	return c.decode(op, raw)
}

// doSlashRetry runs the request against the bare path and, if the upstream
// rejects it, once more against the trailing-slash form. Services disagree on
// slash-triggered redirects; the last failure wins when both attempts fail.
func (c *Client) doSlashRetry(ctx context.Context, method, path string, query url.Values, body interface{}) (Document, error) {
	doc, err := c.do(ctx, method, path, query, body)
	if err == nil {
		return doc, nil
	}
	if _, ok := AsStatusError(err); !ok {
		return Document{}, err
	}
	return c.do(ctx, method, path+"/", query, body)
}

func (c *Client) decode(op string, raw []byte) (Document, error) {
	if json.Valid(raw) {
		return NewDocument(raw), nil
	}
	if c.tolerant {
		if fixed := rewritePythonLiterals(raw); json.Valid(fixed) {
			return NewDocument(fixed), nil
		}
	}
	return Document{}, fmt.Errorf("%s %s: invalid JSON in response body", c.service, op)
}

// rewritePythonLiterals maps the bare tokens None, True and False to their
// JSON spellings. Tokens inside strings are left alone.
func rewritePythonLiterals(raw []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(raw))

	inString := false
	escaped := false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			out.WriteByte(ch)
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}
		if rep, n := matchLiteral(raw[i:]); n > 0 {
			out.WriteString(rep)
			i += n - 1
			continue
		}
		out.WriteByte(ch)
	}
	return out.Bytes()
}

func matchLiteral(raw []byte) (string, int) {
	for _, lit := range []struct {
		token string
		repl  string
	}{
		{"None", "null"},
		{"True", "true"},
		{"False", "false"},
	} {
		if bytes.HasPrefix(raw, []byte(lit.token)) && !isWordByte(raw, len(lit.token)) {
			return lit.repl, len(lit.token)
		}
	}
	return "", 0
}

func isWordByte(raw []byte, idx int) bool {
	if idx >= len(raw) {
		return false
	}
	ch := raw[idx]
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}
