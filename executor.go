package goWallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goWallet/internal/flows"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Do sends req to the backend with the session token attached.
//
// The Authorization header is set unless req already carries one, and
// Content-Type defaults to application/json. A 401 or 403 ends the session
// (once per session) and returns ErrAuthRequired with the body closed. Every
// other response is returned as-is; Do never retries.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c == nil || c.closed.Load() {
		return nil, ErrClientNotReady
	}
	if ctx == nil {
		ctx = req.Context()
	}

	state, gen := c.state.current()
	if bound, ok := sessionGenerationFromContext(ctx); ok && bound != gen {
		return nil, fmt.Errorf("%w: session changed", ErrAuthRequired)
	}
	if state != StateAuthenticated {
		return nil, fmt.Errorf("%w: %w", ErrAuthRequired, ErrNoSession)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		c.teardown(ctx, gen, "token unavailable", err)
		return nil, fmt.Errorf("%w: %w", ErrAuthRequired, err)
	}

	out := req.Clone(ctx)
	if out.Header.Get("Authorization") == "" {
		out.Header.Set("Authorization", c.authorization(token))
	}
	if out.Header.Get("Content-Type") == "" {
		out.Header.Set("Content-Type", "application/json")
	}

	c.metrics.Inc(MetricRequest)
	start := time.Now()
	resp, err := c.http.Do(out)
	c.metrics.Observe(MetricRequestLatency, time.Since(start))
	if err != nil {
		c.metrics.Inc(MetricRequestError)
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.config.Backend.MaxBodyBytes))
		_ = resp.Body.Close()
		c.metrics.Inc(MetricAuthRejected)
		c.teardown(ctx, gen, "backend rejected token", fmt.Errorf("status %d", resp.StatusCode))
		return nil, fmt.Errorf("%w: backend returned %d", ErrAuthRequired, resp.StatusCode)
	}
	return resp, nil
}

// Get issues an authorized GET for path relative to the backend base URL.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.send(ctx, http.MethodGet, path, nil)
}

// Post issues an authorized POST with body encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.send(ctx, http.MethodPost, path, body)
}

// Put issues an authorized PUT with body encoded as JSON.
func (c *Client) Put(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.send(ctx, http.MethodPut, path, body)
}

// Delete issues an authorized DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.send(ctx, http.MethodDelete, path, nil)
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return http.NewRequestWithContext(ctx, method, c.config.Backend.BaseURL+path, reader)
}

func (c *Client) authorization(token string) string {
	if c.config.Backend.AuthScheme == "" {
		return token
	}
	return c.config.Backend.AuthScheme + " " + token
}

// fetch performs one authorized call and returns the status and bounded body.
func (c *Client) fetch(ctx context.Context, method, path string, body any) (int, []byte, error) {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.config.Backend.MaxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, raw, nil
}

// call is fetch with non-2xx mapped to *HTTPError.
func (c *Client) call(ctx context.Context, method, path string, body any) ([]byte, error) {
	code, raw, err := c.fetch(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if code < 200 || code > 299 {
		return nil, &HTTPError{Status: code, Message: gjson.GetBytes(raw, "message").String()}
	}
	return raw, nil
}

// decodeAt unmarshals the object at path, or the whole body when path is absent.
func decodeAt(raw []byte, path string, out any) error {
	if path != "" {
		if v := gjson.GetBytes(raw, path); v.IsObject() || v.IsArray() {
			raw = []byte(v.Raw)
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// teardown ends session gen after the backend or identity provider rejected it.
func (c *Client) teardown(ctx context.Context, gen uint64, reason string, cause error) {
	res := flows.RunTeardown(ctx, flows.LogoutDeps{
		SignOut: c.provider.SignOut,
		Store:   c.store,
		Key:     c.config.Account.StorageKey,
		End:     func() bool { return c.state.end(gen) },
	})
	if !res.Ended {
		return
	}
	c.tokens.forget()
	c.metrics.Inc(MetricTeardown)

	entry := c.logger.WithFields(logrus.Fields{"generation": gen, "reason": reason})
	if cause != nil {
		entry = entry.WithError(cause)
	}
	if res.SignOutErr != nil {
		entry = entry.WithField("sign_out_error", res.SignOutErr.Error())
	}
	if res.StoreErr != nil {
		entry = entry.WithField("store_error", res.StoreErr.Error())
	}
	entry.Warn("session torn down")

	ev := Event{Type: EventTeardown, Generation: gen, Success: true, Metadata: map[string]string{"reason": reason}}
	if cause != nil {
		ev.Error = cause.Error()
	}
	c.events.Emit(context.WithoutCancel(ctx), ev)
}
