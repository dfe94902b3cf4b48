// internal/app/system/realtime/client.go

// Package realtime talks to the external collaboration backend that hosts
// presence and CRDT sessions. The backend's per-room access map is a derived
// mirror of the durable membership records: this package only writes it,
// never reads it back as a decision input.
package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Access grant levels understood by the backend. A user entry maps to one of
// these lists, or to null to revoke.
var (
	GrantWrite        = []string{"room:write"}
	GrantReadPresence = []string{"room:read", "room:presence:write"}
)

// RoomParams describes the backend room object: display metadata plus the
// default and per-user access lists. A nil entry in UsersAccesses revokes
// that user's grant.
type RoomParams struct {
	Metadata        map[string]string   `json:"metadata,omitempty"`
	DefaultAccesses []string            `json:"defaultAccesses"`
	UsersAccesses   map[string][]string `json:"usersAccesses,omitempty"`
}

// Interface is the surface the rest of the app depends on. All calls are
// idempotent upserts or deletes; repeating one re-asserts the same state.
type Interface interface {
	UpsertRoom(ctx context.Context, roomID string, p RoomParams) error
	DeleteRoom(ctx context.Context, roomID string) error
	UpdateAccess(ctx context.Context, roomID, userID string, access []string) error
}

// Client is the HTTP implementation.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
	log     *zap.Logger
}

// NewClient builds a Client for the backend's REST API.
func NewClient(baseURL, secret string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     logger,
	}
}

// UpsertRoom creates the room object or overwrites its metadata and access
// lists if it already exists.
func (c *Client) UpsertRoom(ctx context.Context, roomID string, p RoomParams) error {
	if p.DefaultAccesses == nil {
		p.DefaultAccesses = []string{}
	}
	return c.do(ctx, http.MethodPost, "/v2/rooms/"+roomID, p)
}

// DeleteRoom removes the room object. Deleting an absent room is not an
// error; the desired end state holds either way.
func (c *Client) DeleteRoom(ctx context.Context, roomID string) error {
	err := c.do(ctx, http.MethodDelete, "/v2/rooms/"+roomID, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}

// UpdateAccess sets one user's grant on a room. access nil revokes.
func (c *Client) UpdateAccess(ctx context.Context, roomID, userID string, access []string) error {
	body := struct {
		UsersAccesses map[string][]string `json:"usersAccesses"`
	}{
		UsersAccesses: map[string][]string{userID: access},
	}
	return c.do(ctx, http.MethodPost, "/v2/rooms/"+roomID, body)
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("realtime backend returned %d: %s", e.code, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.code == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, payload any) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode realtime payload: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build realtime request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("realtime %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &statusError{code: resp.StatusCode, body: string(snippet)}
}
