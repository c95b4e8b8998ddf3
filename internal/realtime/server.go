package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/sourcegraph/conc/panics"
	"golang.org/x/net/websocket"

	"github.com/taskdeck/taskdeck/internal/access"
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/task"
)

const sendBufferSize = 32

type inboundMessage struct {
	Type   string `json:"type"`
	TaskID string `json:"taskId"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	TaskID  string `json:"taskId,omitempty"`
	Comment any    `json:"comment,omitempty"`
	Message string `json:"message,omitempty"`
}

// NewCommentMessage wraps a freshly persisted comment in the envelope
// pushed to the task's subscribers.
func NewCommentMessage(comment any) outboundMessage {
	return outboundMessage{Type: "new_comment", Comment: comment}
}

// Server upgrades authenticated clients to a websocket and relays hub
// events to them. A client joins one task group at a time by sending
// {"type":"join_task","taskId":...}; the server answers joins and errors
// inline and pushes new_comment events as they happen.
type Server struct {
	hub      *Hub
	tokens   *auth.Tokens
	tasks    task.Repository
	resolver *access.Resolver
}

func NewServer(hub *Hub, tokens *auth.Tokens, tasks task.Repository, resolver *access.Resolver) *Server {
	return &Server{
		hub:      hub,
		tokens:   tokens,
		tasks:    tasks,
		resolver: resolver,
	}
}

// Handler returns the http.Handler for GET /ws. The token is taken from
// the usual cookie or header, or a `token` query parameter for clients
// that cannot set either on a websocket request.
func (s *Server) Handler() http.Handler {
	return websocket.Handler(func(ws *websocket.Conn) {
		r := ws.Request()
		tokenString := auth.TokenFromRequest(r)
		if tokenString == "" {
			tokenString = r.URL.Query().Get("token")
		}
		claims, err := s.tokens.Verify(tokenString)
		if err != nil {
			sendJSON(ws, outboundMessage{Type: "error", Message: "invalid token"})
			ws.Close()
			return
		}
		s.serve(r.Context(), ws, claims.Subject)
	})
}

func (s *Server) serve(ctx context.Context, ws *websocket.Conn, userID string) {
	connID, ch := s.hub.Register(sendBufferSize)
	defer s.hub.Unregister(connID)

	slog.Info("websocket connected", "conn_id", connID, "user_id", userID)
	defer slog.Info("websocket disconnected", "conn_id", connID, "user_id", userID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Writer goroutine: drains the hub channel until the connection or
	// context goes away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		var pc panics.Catcher
		pc.Try(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case data, ok := <-ch:
					if !ok {
						return
					}
					if err := websocket.Message.Send(ws, string(data)); err != nil {
						cancel()
						return
					}
				}
			}
		})
		if recovered := pc.Recovered(); recovered != nil {
			slog.Error("websocket writer panicked", "conn_id", connID, "panic", recovered.String())
		}
	}()

	for {
		var msg inboundMessage
		if err := websocket.JSON.Receive(ws, &msg); err != nil {
			if err != io.EOF {
				slog.Debug("websocket receive failed", "conn_id", connID, "error", err)
			}
			break
		}
		s.handleMessage(ctx, ws, connID, userID, &msg)
	}

	cancel()
	ws.Close()
	<-done
}

func (s *Server) handleMessage(ctx context.Context, ws *websocket.Conn, connID, userID string, msg *inboundMessage) {
	switch msg.Type {
	case "join_task":
		s.handleJoin(ctx, ws, connID, userID, msg.TaskID)
	case "leave_task":
		s.hub.Leave(connID)
	default:
		sendJSON(ws, outboundMessage{Type: "error", Message: "unknown message type"})
	}
}

// handleJoin admits the connection to the task's group after the same
// visibility check the REST endpoints apply. A denied join reads the
// same as a missing task.
func (s *Server) handleJoin(ctx context.Context, ws *websocket.Conn, connID, userID, taskID string) {
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		sendJSON(ws, outboundMessage{Type: "error", Message: "task not found"})
		return
	}
	ok, err := s.resolver.CanViewTask(ctx, userID, t)
	if err != nil || !ok {
		sendJSON(ws, outboundMessage{Type: "error", Message: "task not found"})
		return
	}
	if err := s.hub.Join(connID, t.ID); err != nil {
		sendJSON(ws, outboundMessage{Type: "error", Message: "connection closed"})
		return
	}
	sendJSON(ws, outboundMessage{Type: "joined_task", TaskID: t.ID})
}

func sendJSON(ws *websocket.Conn, msg outboundMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	_ = websocket.Message.Send(ws, string(data))
}
