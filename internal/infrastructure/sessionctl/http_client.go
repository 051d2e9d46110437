// Package sessionctl is a thin JSON client for the external session-control
// API. That API is the authoritative enforcer of pause/resume/stop
// preconditions; this client only maps its responses onto the domain error
// taxonomy.
package sessionctl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sweepDeskApp/internal/domain/model"
	"sweepDeskApp/internal/domain/repository"
)

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Ensure Client implements the SessionControl interface
var _ repository.SessionControl = (*Client)(nil)

func (c *Client) GetSession(ctx context.Context, id string) (*model.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/sessions/%s", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return nil, err
	}

	var session model.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

func (c *Client) Pause(ctx context.Context, id string) error {
	return c.control(ctx, id, "pause")
}

func (c *Client) Resume(ctx context.Context, id string) error {
	return c.control(ctx, id, "resume")
}

func (c *Client) Stop(ctx context.Context, id string) error {
	return c.control(ctx, id, "stop")
}

func (c *Client) control(ctx context.Context, id, action string) error {
	url := fmt.Sprintf("%s/sessions/%s/%s", c.baseURL, id, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	return statusError(resp)
}

// statusError maps an HTTP response onto the domain error taxonomy.
func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return model.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return model.ErrNotFound
	case resp.StatusCode == http.StatusPreconditionFailed || resp.StatusCode == http.StatusConflict:
		return model.ErrPreconditionFailed
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", model.ErrUnavailable, resp.StatusCode, body)
	}
}
