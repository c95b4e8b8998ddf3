package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"

	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

// Scanner periodically reminds assignees of tasks approaching their due
// date. A reminder for the same (task, assignee) pair is suppressed while
// one created within the dedup window exists; the existence check and the
// insert share one transaction, so overlapping runs cannot double-insert.
type Scanner struct {
	db            *storage.DB
	tasks         task.Repository
	notifications Repository
	sender        *Sender

	period      time.Duration
	dueWindow   time.Duration
	dedupWindow time.Duration
	batchSize   int
}

func NewScanner(
	db *storage.DB,
	tasks task.Repository,
	notifications Repository,
	sender *Sender,
	env *config.ScannerEnv,
) *Scanner {
	return &Scanner{
		db:            db,
		tasks:         tasks,
		notifications: notifications,
		sender:        sender,
		period:        env.Period,
		dueWindow:     env.DueWindow,
		dedupWindow:   env.DedupWindow,
		batchSize:     env.BatchSize,
	}
}

func (s *Scanner) Start(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	slog.Info("due-date scanner started", "period", s.period)
	for {
		select {
		case <-ctx.Done():
			slog.Info("due-date scanner stopped")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx, time.Now()); err != nil {
				slog.Error("due-date scanner run failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single scan as of now. Re-running it against an
// unchanged task set creates no additional reminders.
func (s *Scanner) RunOnce(ctx context.Context, now time.Time) error {
	due, err := s.tasks.ListDueBetween(ctx, now, now.Add(s.dueWindow), s.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list due tasks: %w", err)
	}

	for _, t := range due {
		if t.AssignedTo == nil || t.DueDate == nil {
			continue
		}
		if err := s.remind(ctx, t, now); err != nil {
			slog.Error("due-date scanner: failed to create reminder",
				"task_id", t.ID, "user_id", *t.AssignedTo, "error", err)
		}
	}
	return nil
}

func (s *Scanner) remind(ctx context.Context, t *task.Task, now time.Time) error {
	var created *Notification
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		exists, err := s.notifications.HasRecentTx(ctx, tx, t.ID, *t.AssignedTo, TypeReminder, now.Add(-s.dedupWindow))
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		n := &Notification{
			ID:        ulid.Make().String(),
			UserID:    *t.AssignedTo,
			TaskID:    &t.ID,
			Message:   fmt.Sprintf("Task %q is due on %s", t.Title, t.DueDate.Format("2006-01-02")),
			Type:      TypeReminder,
			CreatedAt: now,
		}
		if err := s.notifications.CreateTx(ctx, tx, n); err != nil {
			return err
		}
		created = n
		return nil
	})
	if err != nil {
		return err
	}
	if created != nil && s.sender != nil {
		s.sender.SendToUser(ctx, created.UserID, &PushPayload{
			Title: "Taskdeck",
			Body:  created.Message,
			Tag:   created.ID,
		})
	}
	return nil
}
