// Package backend implements the domain repositories over the attendance
// REST backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/config"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/apperror"
)

const maxErrorBody = 64 << 10

// Client is the shared HTTP plumbing of every backend repository.
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	location    *time.Location
	checkMethod string
}

func NewClient(cfg config.BackendConfig, loc *time.Location) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend base url %q", cfg.BaseURL)
	}
	if loc == nil {
		loc = time.UTC
	}
	method := cfg.CheckMethod
	if method == "" {
		method = "portal"
	}

	return &Client{
		baseURL:     base,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		location:    loc,
		checkMethod: method,
	}, nil
}

// Location is the zone offset-less backend timestamps are read in.
func (c *Client) Location() *time.Location {
	return c.location
}

// statusMapper turns a non-2xx status and its detail into a domain sentinel, or nil.
type statusMapper func(status int, detail string) error

type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   interface{}
	mapErr statusMapper
}

// do sends req and decodes a 2xx JSON body into out (skipped when out is nil).
// Every failure is an *apperror.NetworkError.
func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + req.path
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return &apperror.NetworkError{Op: req.op, Detail: "could not encode request", Err: err}
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return &apperror.NetworkError{Op: req.op, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		slog.Warn("Backend request failed", "op", req.op, "path", req.path, "error", err)
		return &apperror.NetworkError{Op: req.op, Err: err}
	}
	defer resp.Body.Close()

	slog.Debug("Backend request", "op", req.op, "method", req.method, "path", req.path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		detail := apperror.DetailFrom(raw)
		netErr := &apperror.NetworkError{Op: req.op, StatusCode: resp.StatusCode, Detail: detail}
		if req.mapErr != nil {
			netErr.Err = req.mapErr(resp.StatusCode, detail)
		}
		return netErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return &apperror.NetworkError{
			Op:         req.op,
			StatusCode: resp.StatusCode,
			Detail:     "invalid response from attendance service",
			Err:        err,
		}
	}

	return nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// adminErrors maps the admin endpoints' refusals onto user sentinels.
func adminErrors(status int, detail string) error {
	switch {
	case status == http.StatusForbidden:
		return user.ErrAdminPrivilegeRequired
	case status == http.StatusNotFound:
		return user.ErrUserNotFound
	case status == http.StatusConflict,
		status == http.StatusBadRequest && strings.Contains(strings.ToLower(detail), "already registered"):
		return user.ErrUserEmailExists
	}
	return nil
}
