package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taskdeck/taskdeck/internal/eventbus"
)

// Engine consumes task lifecycle events and turns them into notification
// rows. One notification per assignment event and per effective status
// change, addressed to the task's assignee.
type Engine struct {
	eventBus *eventbus.Bus
	repo     Repository
	sender   *Sender
}

func NewEngine(eventBus *eventbus.Bus, repo Repository, sender *Sender) *Engine {
	return &Engine{
		eventBus: eventBus,
		repo:     repo,
		sender:   sender,
	}
}

func (e *Engine) Start(ctx context.Context) {
	subID, ch := e.eventBus.Subscribe(256)
	defer e.eventBus.Unsubscribe(subID)

	slog.Info("notification engine started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("notification engine stopped")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			e.HandleEvent(ctx, event)
		}
	}
}

// HandleEvent is the synchronous entry point; Start feeds it from the
// bus, tests may call it directly.
func (e *Engine) HandleEvent(ctx context.Context, event *eventbus.Event) {
	switch event.Type {
	case eventbus.EventTaskAssigned:
		e.handleAssigned(ctx, event)
	case eventbus.EventTaskStatusChanged:
		e.handleStatusChanged(ctx, event)
	}
}

func (e *Engine) handleAssigned(ctx context.Context, event *eventbus.Event) {
	assigneeID := event.Payload["assignee_id"]
	if assigneeID == "" {
		return
	}
	msg := fmt.Sprintf("You have been assigned to task %q", event.Payload["task_title"])
	e.deliver(ctx, assigneeID, event.TaskID, TypeAssignment, msg)
}

func (e *Engine) handleStatusChanged(ctx context.Context, event *eventbus.Event) {
	assigneeID := event.Payload["assignee_id"]
	if assigneeID == "" {
		return
	}
	msg := fmt.Sprintf("Task %q moved from %s to %s",
		event.Payload["task_title"], event.Payload["old_status"], event.Payload["new_status"])
	e.deliver(ctx, assigneeID, event.TaskID, TypeStatusChange, msg)
}

func (e *Engine) deliver(ctx context.Context, userID, taskID string, typ Type, msg string) {
	n := &Notification{
		ID:        ulid.Make().String(),
		UserID:    userID,
		TaskID:    &taskID,
		Message:   msg,
		Type:      typ,
		CreatedAt: time.Now(),
	}
	if err := e.repo.Create(ctx, n); err != nil {
		slog.Error("notification engine: failed to create notification",
			"task_id", taskID, "user_id", userID, "error", err)
		return
	}
	if e.sender != nil {
		e.sender.SendToUser(ctx, userID, &PushPayload{
			Title: "Taskdeck",
			Body:  msg,
			Tag:   n.ID,
		})
	}
}
