package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/eventbus"
	"github.com/taskdeck/taskdeck/internal/notification"
	notificationrepo "github.com/taskdeck/taskdeck/internal/notification/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/task"
	taskrepo "github.com/taskdeck/taskdeck/internal/task/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/user"
	userrepo "github.com/taskdeck/taskdeck/internal/user/repositoryimpl"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

type fixture struct {
	db            *storage.DB
	users         user.Repository
	tasks         task.Repository
	notifications notification.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &fixture{
		db:            db,
		users:         userrepo.NewSQLiteRepository(db),
		tasks:         taskrepo.NewSQLiteRepository(db),
		notifications: notificationrepo.NewSQLiteRepository(db),
	}
}

func (f *fixture) newScanner() *notification.Scanner {
	return notification.NewScanner(f.db, f.tasks, f.notifications, nil, &config.ScannerEnv{
		Period:      time.Minute,
		DueWindow:   48 * time.Hour,
		DedupWindow: 24 * time.Hour,
		BatchSize:   100,
	})
}

func (f *fixture) createUser(t *testing.T, email string) *user.User {
	t.Helper()
	u := &user.User{
		ID:           ulid.Make().String(),
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "x",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) createDueTask(t *testing.T, createdBy string, assignedTo *string, due time.Time, status task.Status) *task.Task {
	t.Helper()
	tk := &task.Task{
		ID:         ulid.Make().String(),
		Title:      "Quarterly report",
		DueDate:    &due,
		Priority:   task.PriorityHigh,
		Status:     status,
		CreatedBy:  createdBy,
		AssignedTo: assignedTo,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, f.tasks.Create(context.Background(), tk))
	return tk
}

func TestScannerCreatesReminderOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scanner := f.newScanner()

	u := f.createUser(t, "dev@example.com")
	now := time.Now()
	f.createDueTask(t, u.ID, &u.ID, now.Add(12*time.Hour), task.StatusPending)

	require.NoError(t, scanner.RunOnce(ctx, now))
	require.NoError(t, scanner.RunOnce(ctx, now.Add(time.Minute)))

	ns, err := f.notifications.ListByUser(ctx, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, ns, 1, "a second scan within the dedup window must not re-remind")
	assert.Equal(t, notification.TypeReminder, ns[0].Type)
	assert.Contains(t, ns[0].Message, "Quarterly report")
}

func TestScannerRemindsAgainAfterDedupWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scanner := f.newScanner()

	u := f.createUser(t, "dev@example.com")
	now := time.Now()
	f.createDueTask(t, u.ID, &u.ID, now.Add(40*time.Hour), task.StatusPending)

	require.NoError(t, scanner.RunOnce(ctx, now))
	require.NoError(t, scanner.RunOnce(ctx, now.Add(25*time.Hour)))

	ns, err := f.notifications.ListByUser(ctx, u.ID, 10)
	require.NoError(t, err)
	assert.Len(t, ns, 2)
}

func TestScannerSkipsUnassignedAndCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scanner := f.newScanner()

	u := f.createUser(t, "dev@example.com")
	now := time.Now()
	f.createDueTask(t, u.ID, nil, now.Add(12*time.Hour), task.StatusPending)
	f.createDueTask(t, u.ID, &u.ID, now.Add(12*time.Hour), task.StatusCompleted)

	require.NoError(t, scanner.RunOnce(ctx, now))

	ns, err := f.notifications.ListByUser(ctx, u.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, ns)
}

func TestScannerIgnoresTasksOutsideWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scanner := f.newScanner()

	u := f.createUser(t, "dev@example.com")
	now := time.Now()
	f.createDueTask(t, u.ID, &u.ID, now.Add(72*time.Hour), task.StatusPending)
	f.createDueTask(t, u.ID, &u.ID, now.Add(-time.Hour), task.StatusPending)

	require.NoError(t, scanner.RunOnce(ctx, now))

	ns, err := f.notifications.ListByUser(ctx, u.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, ns, "only tasks due within the window are reminded")
}

func TestEngineAssignmentNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.createUser(t, "dev@example.com")
	tk := f.createDueTask(t, u.ID, &u.ID, time.Now().Add(12*time.Hour), task.StatusPending)

	engine := notification.NewEngine(eventbus.New(), f.notifications, nil)
	engine.HandleEvent(ctx, &eventbus.Event{
		ID:      ulid.Make().String(),
		Type:    eventbus.EventTaskAssigned,
		TaskID:  tk.ID,
		ActorID: u.ID,
		Payload: map[string]string{
			"assignee_id": u.ID,
			"task_title":  tk.Title,
		},
		CreatedAt: time.Now(),
	})

	ns, err := f.notifications.ListByUser(ctx, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Equal(t, notification.TypeAssignment, ns[0].Type)
	assert.Contains(t, ns[0].Message, "assigned")
}

func TestEngineStatusChangeNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.createUser(t, "dev@example.com")
	tk := f.createDueTask(t, u.ID, &u.ID, time.Now().Add(12*time.Hour), task.StatusInProgress)

	engine := notification.NewEngine(eventbus.New(), f.notifications, nil)
	engine.HandleEvent(ctx, &eventbus.Event{
		ID:      ulid.Make().String(),
		Type:    eventbus.EventTaskStatusChanged,
		TaskID:  tk.ID,
		ActorID: u.ID,
		Payload: map[string]string{
			"assignee_id": u.ID,
			"task_title":  tk.Title,
			"old_status":  "pending",
			"new_status":  "in-progress",
		},
		CreatedAt: time.Now(),
	})

	ns, err := f.notifications.ListByUser(ctx, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Equal(t, notification.TypeStatusChange, ns[0].Type)
	assert.Contains(t, ns[0].Message, "pending")
	assert.Contains(t, ns[0].Message, "in-progress")
}

func TestEngineIgnoresEventsWithoutAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.createUser(t, "dev@example.com")
	tk := f.createDueTask(t, u.ID, &u.ID, time.Now().Add(12*time.Hour), task.StatusPending)

	engine := notification.NewEngine(eventbus.New(), f.notifications, nil)
	engine.HandleEvent(ctx, &eventbus.Event{
		ID:        ulid.Make().String(),
		Type:      eventbus.EventTaskStatusChanged,
		TaskID:    tk.ID,
		ActorID:   u.ID,
		Payload:   map[string]string{"task_title": tk.Title},
		CreatedAt: time.Now(),
	})

	ns, err := f.notifications.ListByUser(ctx, u.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, ns)
}
