package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"queuewatch/internal/api"
)

// apiClient talks to the daemon's JSON API.
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func newAPIClient(addr, token string, timeout time.Duration) *apiClient {
	base := strings.TrimRight(addr, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &apiClient{
		base:  base,
		token: token,
		http:  &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) Status(ctx context.Context) (api.StatusResponse, error) {
	var resp api.StatusResponse
	err := c.do(ctx, http.MethodGet, "/api/status", &resp)
	return resp, err
}

func (c *apiClient) Records(ctx context.Context) (api.RecordsResponse, error) {
	var resp api.RecordsResponse
	err := c.do(ctx, http.MethodGet, "/api/records", &resp)
	return resp, err
}

func (c *apiClient) TestNotification(ctx context.Context) (api.TestNotificationResponse, error) {
	var resp api.TestNotificationResponse
	err := c.do(ctx, http.MethodPost, "/api/notifications/test", &resp)
	return resp, err
}

func (c *apiClient) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapDialError(err, c.base)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read api response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr api.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon api %s: %s", path, apiErr.Error)
		}
		return fmt.Errorf("daemon api %s: %s", path, resp.Status)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode api response: %w", err)
	}
	return nil
}

func wrapDialError(err error, base string) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: %s refused the connection; start the daemon with `queuewatch run`", base)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}
