package testsnapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/rollcall/internal/domain/model"
)

// maxErrorBody bounds how much of an unexpected response is kept for errors.
const maxErrorBody = 512

// Client talks to the rollcall HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Health checks that the service answers /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, nil)
}

// Upload posts snap under id.
func (c *Client) Upload(ctx context.Context, id string, snap model.Snapshot) (SnapshotInfo, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	var info SnapshotInfo
	err = c.do(ctx, http.MethodPost, "/snapshots?id="+url.QueryEscape(id), body, http.StatusCreated, &info)
	return info, err
}

// Delete removes the snapshot stored under id.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.snapshotPath(id), nil, http.StatusNoContent, nil)
}

// Summary fetches the participation summary.
func (c *Client) Summary(ctx context.Context, id string) (Summary, error) {
	var out Summary
	err := c.do(ctx, http.MethodGet, c.snapshotPath(id)+"/summary", nil, http.StatusOK, &out)
	return out, err
}

// Alignment fetches the alignment matrix and rankings.
func (c *Client) Alignment(ctx context.Context, id string) (Alignment, error) {
	var out Alignment
	err := c.do(ctx, http.MethodGet, c.snapshotPath(id)+"/alignment", nil, http.StatusOK, &out)
	return out, err
}

// Profile fetches one member's profile.
func (c *Client) Profile(ctx context.Context, id, member string) (Profile, error) {
	var out Profile
	path := c.snapshotPath(id) + "/members/" + url.PathEscape(member)
	err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &out)
	return out, err
}

// Agenda fetches the agenda grouped by meeting.
func (c *Client) Agenda(ctx context.Context, id string) ([]Meeting, error) {
	var out []Meeting
	err := c.do(ctx, http.MethodGet, c.snapshotPath(id)+"/agenda", nil, http.StatusOK, &out)
	return out, err
}

// AgendaItem fetches the member votes of one agenda item.
func (c *Client) AgendaItem(ctx context.Context, id, exampleID string) (AgendaItemDetail, error) {
	var out AgendaItemDetail
	path := c.snapshotPath(id) + "/agenda/" + url.PathEscape(exampleID)
	err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &out)
	return out, err
}

func (c *Client) snapshotPath(id string) string {
	return "/snapshots/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, want int, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrUnexpected, method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}
