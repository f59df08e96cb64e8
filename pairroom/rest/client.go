// Package rest provides access to the room provisioning API: creating and
// joining rooms, and querying room status. Join responses supply the
// (roomID, slot) pair a realtime session connects with.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/agustinlozano/ur-partner-sdk-go/pairroom"
)

// Client provides REST access to the room provisioning API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a REST client. baseURL should be the base URL of the
// API, e.g. "https://host/api".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient allows setting a custom HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// CreateRoom creates a new room and returns its metadata.
func (c *Client) CreateRoom(ctx context.Context, req CreateRoomRequest) (*RoomInfo, error) {
	var resp RoomInfo
	if err := c.post(ctx, "/rooms", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JoinRoom claims a free slot in an existing room. The response carries the
// assigned slot and the room-scoped websocket URL.
func (c *Client) JoinRoom(ctx context.Context, roomID string, req JoinRoomRequest) (*JoinResponse, error) {
	var resp JoinResponse
	if err := c.post(ctx, "/rooms/"+roomID+"/join", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RoomStatus returns the occupancy and readiness view of a room.
func (c *Client) RoomStatus(ctx context.Context, roomID string) (*RoomStatus, error) {
	var resp RoomStatus
	if err := c.get(ctx, "/rooms/"+roomID, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LeaveRoom releases a slot. Idempotent: leaving an unoccupied slot
// succeeds.
func (c *Client) LeaveRoom(ctx context.Context, roomID string, slot pairroom.Slot) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/rooms/"+roomID+"/slots/"+string(slot), http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, nil)
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("api error (status %d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("http error: %s (status %d)", string(body), resp.StatusCode)
	}

	if dest != nil {
		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
