package server

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"faceblog/internal/models"
	"faceblog/internal/notifications"
	"faceblog/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type receivedFrame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

func nextFrame(t *testing.T, client *notifications.Client) receivedFrame {
	t.Helper()
	select {
	case raw := <-client.Send:
		var frame receivedFrame
		require.NoError(t, json.Unmarshal(raw, &frame))
		return frame
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return receivedFrame{}
	}
}

func assertNoFrame(t *testing.T, client *notifications.Client) {
	t.Helper()
	select {
	case raw := <-client.Send:
		t.Fatalf("unexpected frame: %s", raw)
	default:
	}
}

func wsFrame(event, data string) []byte {
	return []byte(fmt.Sprintf(`{"event":%q,"data":%s}`, event, data))
}

func TestRealtimeRoomMessages(t *testing.T) {
	ts := newTestServer(t)
	amy, _ := ts.login(t, "amy")
	bea, _ := ts.login(t, "bea")
	room := models.ChatRoom{Name: "lobby"}
	require.NoError(t, ts.db.Create(&room).Error)

	ctx := context.Background()
	amyConn, err := ts.hub.Register(amy.ID, amy.Username, nil)
	require.NoError(t, err)
	beaConn, err := ts.hub.Register(bea.ID, bea.Username, nil)
	require.NoError(t, err)

	join := wsFrame(notifications.EventJoinRoom, fmt.Sprintf(`{"chatroom_id":%d}`, room.ID))
	ts.handleRealtimeFrame(ctx, amyConn, join)
	ts.handleRealtimeFrame(ctx, beaConn, join)

	send := wsFrame(notifications.EventSendMessage, fmt.Sprintf(`{"chatroom_id":%d,"message":"hi all"}`, room.ID))
	ts.handleRealtimeFrame(ctx, amyConn, send)

	for _, client := range []*notifications.Client{amyConn, beaConn} {
		got := nextFrame(t, client)
		assert.Equal(t, notifications.EventReceiveMessage, got.Event)
		assert.Equal(t, "hi all", got.Data["message"])
		assert.Equal(t, "amy", got.Data["username"])
		assert.Equal(t, float64(room.ID), got.Data["chatroom_id"])
	}

	t.Run("blank message is dropped", func(t *testing.T) {
		ts.handleRealtimeFrame(ctx, amyConn, wsFrame(notifications.EventSendMessage,
			fmt.Sprintf(`{"chatroom_id":%d,"message":"   "}`, room.ID)))
		assertNoFrame(t, amyConn)
		assertNoFrame(t, beaConn)
	})

	t.Run("leave stops delivery", func(t *testing.T) {
		ts.handleRealtimeFrame(ctx, beaConn, wsFrame(notifications.EventLeaveRoom, fmt.Sprintf(`{"chatroom_id":%d}`, room.ID)))
		ts.handleRealtimeFrame(ctx, amyConn, send)
		assert.Equal(t, notifications.EventReceiveMessage, nextFrame(t, amyConn).Event)
		assertNoFrame(t, beaConn)
	})

	t.Run("unknown room", func(t *testing.T) {
		ts.handleRealtimeFrame(ctx, amyConn, wsFrame(notifications.EventJoinRoom, `{"chatroom_id":9999}`))
		got := nextFrame(t, amyConn)
		assert.Equal(t, notifications.EventError, got.Event)
		assert.Equal(t, "Chat room not found", got.Data["message"])
	})

	var count int64
	require.NoError(t, ts.db.Model(&models.RoomMessage{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestRealtimeDirectMessages(t *testing.T) {
	ts := newTestServer(t)
	amy, _ := ts.login(t, "amy")
	bea, _ := ts.login(t, "bea")

	ctx := context.Background()
	amyConn, err := ts.hub.Register(amy.ID, amy.Username, nil)
	require.NoError(t, err)
	beaConn, err := ts.hub.Register(bea.ID, bea.Username, nil)
	require.NoError(t, err)

	ts.handleRealtimeFrame(ctx, amyConn, wsFrame(notifications.EventSendDirectMessage,
		fmt.Sprintf(`{"recipient_id":%d,"message":"psst"}`, bea.ID)))

	for _, client := range []*notifications.Client{beaConn, amyConn} {
		got := nextFrame(t, client)
		assert.Equal(t, notifications.EventReceiveDirectMessage, got.Event)
		assert.Equal(t, "psst", got.Data["message"])
		assert.Equal(t, float64(amy.ID), got.Data["sender_id"])
		assert.Equal(t, "amy", got.Data["sender_username"])
		assert.Equal(t, float64(bea.ID), got.Data["recipient_id"])
		_, err := time.Parse(notifications.TimestampLayout, got.Data["timestamp"].(string))
		assert.NoError(t, err)
	}

	t.Run("self send", func(t *testing.T) {
		ts.handleRealtimeFrame(ctx, amyConn, wsFrame(notifications.EventSendDirectMessage,
			fmt.Sprintf(`{"recipient_id":%d,"message":"me"}`, amy.ID)))
		got := nextFrame(t, amyConn)
		assert.Equal(t, notifications.EventError, got.Event)
		assert.Equal(t, service.WarnSelfChat, got.Data["message"])
	})

	t.Run("unknown recipient", func(t *testing.T) {
		ts.handleRealtimeFrame(ctx, amyConn, wsFrame(notifications.EventSendDirectMessage, `{"recipient_id":9999,"message":"hello?"}`))
		got := nextFrame(t, amyConn)
		assert.Equal(t, notifications.EventError, got.Event)
		assertNoFrame(t, beaConn)
	})
}

func TestRealtimeMalformedFrames(t *testing.T) {
	ts := newTestServer(t)
	amy, _ := ts.login(t, "amy")
	client, err := ts.hub.Register(amy.ID, amy.Username, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"not json", `nope`, "Invalid message format"},
		{"no event", `{"data":{}}`, "Invalid message format"},
		{"unknown event", `{"event":"dance","data":{}}`, "Unknown event: dance"},
		{"missing data", `{"event":"join_room"}`, "Missing event data"},
		{"bad data", `{"event":"send_message","data":"hi"}`, "Invalid event data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.handleRealtimeFrame(context.Background(), client, []byte(tt.raw))
			got := nextFrame(t, client)
			assert.Equal(t, notifications.EventError, got.Event)
			assert.Equal(t, tt.want, got.Data["message"])
		})
	}
}
