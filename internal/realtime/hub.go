package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Hub owns the mapping from task id to the set of live subscribers. A
// connection belongs to at most one task group at a time: joining a new
// task implicitly leaves the previous one, mirroring a single open
// comment panel per client.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]chan []byte            // connection id -> send channel
	groups map[string]map[string]chan []byte // task id -> connection id -> channel
	joined map[string]string                 // connection id -> task id
}

func NewHub() *Hub {
	return &Hub{
		subs:   make(map[string]chan []byte),
		groups: make(map[string]map[string]chan []byte),
		joined: make(map[string]string),
	}
}

// Register adds a connection and returns its id and receive channel.
func (h *Hub) Register(bufSize int) (string, <-chan []byte) {
	id := ulid.Make().String()
	ch := make(chan []byte, bufSize)
	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

// Unregister removes the connection from its group and closes its
// channel.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(connID)
	if ch, ok := h.subs[connID]; ok {
		close(ch)
		delete(h.subs, connID)
	}
}

func (h *Hub) Join(connID, taskID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.subs[connID]
	if !ok {
		return fmt.Errorf("unknown connection %s", connID)
	}
	h.leaveLocked(connID)
	group, ok := h.groups[taskID]
	if !ok {
		group = make(map[string]chan []byte)
		h.groups[taskID] = group
	}
	group[connID] = ch
	h.joined[connID] = taskID
	return nil
}

func (h *Hub) Leave(connID string) {
	h.mu.Lock()
	h.leaveLocked(connID)
	h.mu.Unlock()
}

func (h *Hub) leaveLocked(connID string) {
	taskID, ok := h.joined[connID]
	if !ok {
		return
	}
	delete(h.joined, connID)
	if group, ok := h.groups[taskID]; ok {
		delete(group, connID)
		if len(group) == 0 {
			delete(h.groups, taskID)
		}
	}
}

// Publish delivers the payload to every connection currently joined to
// the task's group. Delivery is best-effort: a subscriber with a full
// buffer misses the event and catches up from the history fetch.
func (h *Hub) Publish(taskID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("realtime hub: failed to marshal payload", "task_id", taskID, "error", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.groups[taskID] {
		select {
		case ch <- data:
		default:
			// buffer full, drop event for this subscriber
		}
	}
}
