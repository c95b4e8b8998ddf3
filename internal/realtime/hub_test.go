package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveComment(t *testing.T, ch <-chan []byte) outboundMessage {
	t.Helper()
	select {
	case data := <-ch:
		var msg outboundMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	default:
		t.Fatal("expected a message, channel empty")
		return outboundMessage{}
	}
}

func TestHubPublishReachesJoinedConnections(t *testing.T) {
	hub := NewHub()
	id1, ch1 := hub.Register(4)
	id2, ch2 := hub.Register(4)
	defer hub.Unregister(id1)
	defer hub.Unregister(id2)

	require.NoError(t, hub.Join(id1, "task-1"))
	require.NoError(t, hub.Join(id2, "task-2"))

	hub.Publish("task-1", NewCommentMessage(map[string]string{"id": "c1"}))

	msg := receiveComment(t, ch1)
	assert.Equal(t, "new_comment", msg.Type)

	select {
	case data := <-ch2:
		t.Fatalf("connection in another group received %s", data)
	default:
	}
}

func TestHubJoinSwitchesGroup(t *testing.T) {
	hub := NewHub()
	id, ch := hub.Register(4)
	defer hub.Unregister(id)

	require.NoError(t, hub.Join(id, "task-1"))
	require.NoError(t, hub.Join(id, "task-2"))

	hub.Publish("task-1", NewCommentMessage(nil))
	select {
	case data := <-ch:
		t.Fatalf("received event for a left group: %s", data)
	default:
	}

	hub.Publish("task-2", NewCommentMessage(nil))
	msg := receiveComment(t, ch)
	assert.Equal(t, "new_comment", msg.Type)
}

func TestHubDropsOnFullBuffer(t *testing.T) {
	hub := NewHub()
	id, ch := hub.Register(1)
	defer hub.Unregister(id)
	require.NoError(t, hub.Join(id, "task-1"))

	hub.Publish("task-1", NewCommentMessage(map[string]string{"id": "c1"}))
	hub.Publish("task-1", NewCommentMessage(map[string]string{"id": "c2"}))

	// First fits, second is dropped.
	<-ch
	select {
	case data := <-ch:
		t.Fatalf("expected drop, received %s", data)
	default:
	}
}

func TestHubUnregisterLeavesGroup(t *testing.T) {
	hub := NewHub()
	id, ch := hub.Register(1)
	require.NoError(t, hub.Join(id, "task-1"))

	hub.Unregister(id)
	_, ok := <-ch
	assert.False(t, ok)

	// Publishing to the old group must not panic or block.
	hub.Publish("task-1", NewCommentMessage(nil))
}

func TestHubJoinUnknownConnection(t *testing.T) {
	hub := NewHub()
	assert.Error(t, hub.Join("nope", "task-1"))
}
