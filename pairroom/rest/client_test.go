package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agustinlozano/ur-partner-sdk-go/pairroom"
)

func TestJoinRoom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rooms/abc1/join", r.URL.Path)

		var req JoinRoomRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, pairroom.RoleBoyfriend, req.Role)

		json.NewEncoder(w).Encode(JoinResponse{
			RoomID:    "abc1",
			Slot:      pairroom.SlotB,
			SocketURL: "wss://rooms.example.com/ws",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.JoinRoom(context.Background(), "abc1", JoinRoomRequest{Role: pairroom.RoleBoyfriend})
	require.NoError(t, err)
	assert.Equal(t, pairroom.SlotB, resp.Slot)
	assert.Equal(t, "wss://rooms.example.com/ws", resp.SocketURL)
}

func TestRoomStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rooms/abc1", r.URL.Path)
		json.NewEncoder(w).Encode(RoomStatus{
			RoomID: "abc1",
			SlotA:  SlotStatus{Occupied: true, Ready: true, CompletedCount: 3},
			SlotB:  SlotStatus{Occupied: true},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	status, err := c.RoomStatus(context.Background(), "abc1")
	require.NoError(t, err)
	assert.True(t, status.SlotA.Ready)
	assert.Equal(t, 3, status.SlotA.CompletedCount)
	assert.False(t, status.SlotB.Ready)
}

func TestAPIErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "room full"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.JoinRoom(context.Background(), "abc1", JoinRoomRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "room full")
	assert.Contains(t, err.Error(), "409")
}
