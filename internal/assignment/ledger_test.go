package assignment_test

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/assignment"
	assignmentrepo "github.com/taskdeck/taskdeck/internal/assignment/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/eventbus"
	"github.com/taskdeck/taskdeck/internal/task"
	taskrepo "github.com/taskdeck/taskdeck/internal/task/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/user"
	userrepo "github.com/taskdeck/taskdeck/internal/user/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/workspace"
	workspacerepo "github.com/taskdeck/taskdeck/internal/workspace/repositoryimpl"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

type fixture struct {
	db         *storage.DB
	users      user.Repository
	workspaces workspace.Repository
	tasks      task.Repository
	records    assignment.Repository
	bus        *eventbus.Bus
	ledger     *assignment.Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:         db,
		users:      userrepo.NewSQLiteRepository(db),
		workspaces: workspacerepo.NewSQLiteRepository(db),
		tasks:      taskrepo.NewSQLiteRepository(db),
		records:    assignmentrepo.NewSQLiteRepository(db),
		bus:        eventbus.New(),
	}
	f.ledger = assignment.NewLedger(db, f.tasks, f.users, f.workspaces, f.records, f.bus)
	return f
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

func (f *fixture) createWorkspace(t *testing.T, ownerID string) *workspace.Workspace {
	t.Helper()
	ws := &workspace.Workspace{
		ID:        ulid.Make().String(),
		Name:      "Team",
		CreatedBy: ownerID,
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.workspaces.Create(context.Background(), ws))
	return ws
}

func (f *fixture) createTask(t *testing.T, workspaceID *string, createdBy string) *task.Task {
	t.Helper()
	tk := &task.Task{
		ID:          ulid.Make().String(),
		WorkspaceID: workspaceID,
		Title:       "Ship it",
		Priority:    task.PriorityMedium,
		Status:      task.StatusPending,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, f.tasks.Create(context.Background(), tk))
	return tk
}

func TestAssignNonMemberCreatesMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	outsider := f.createUser(t, "outsider@example.com")
	ws := f.createWorkspace(t, owner.ID)
	tk := f.createTask(t, &ws.ID, owner.ID)

	subID, events := f.bus.Subscribe(4)
	defer f.bus.Unsubscribe(subID)

	got, rec, err := f.ledger.Assign(ctx, owner.ID, tk, outsider.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, outsider.ID, *got.AssignedTo)
	assert.Equal(t, outsider.ID, rec.UserID)

	isMember, err := f.workspaces.IsMember(ctx, ws.ID, outsider.ID)
	require.NoError(t, err)
	assert.True(t, isMember, "assignment must auto-create the membership")

	stored, err := f.tasks.Get(ctx, tk.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AssignedTo)
	assert.Equal(t, outsider.ID, *stored.AssignedTo)

	event := <-events
	assert.Equal(t, eventbus.EventTaskAssigned, event.Type)
	assert.Equal(t, outsider.ID, event.Payload["assignee_id"])
}

func TestAssignOwnerCreatesNoMembershipRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	ws := f.createWorkspace(t, owner.ID)
	tk := f.createTask(t, &ws.ID, owner.ID)

	_, _, err := f.ledger.Assign(ctx, owner.ID, tk, owner.ID)
	require.NoError(t, err)

	members, err := f.workspaces.ListMembers(ctx, ws.ID)
	require.NoError(t, err)
	assert.Empty(t, members, "the owner is an implicit member")
}

func TestReassignAppendsSecondRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	assignee := f.createUser(t, "assignee@example.com")
	ws := f.createWorkspace(t, owner.ID)
	tk := f.createTask(t, &ws.ID, owner.ID)

	_, _, err := f.ledger.Assign(ctx, owner.ID, tk, assignee.ID)
	require.NoError(t, err)
	_, _, err = f.ledger.Assign(ctx, owner.ID, tk, assignee.ID)
	require.NoError(t, err)

	records, err := f.records.ListByTask(ctx, tk.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2, "the ledger is append-only, same assignee or not")

	members, err := f.workspaces.ListMembers(ctx, ws.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1, "repeat assignment must not duplicate the membership")
}

func TestAssignResolvesByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	assignee := f.createUser(t, "dev@example.com")
	ws := f.createWorkspace(t, owner.ID)
	tk := f.createTask(t, &ws.ID, owner.ID)

	got, _, err := f.ledger.Assign(ctx, owner.ID, tk, "Dev@Example.com")
	require.NoError(t, err)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, assignee.ID, *got.AssignedTo)
}

func TestAssignUnknownAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	ws := f.createWorkspace(t, owner.ID)
	tk := f.createTask(t, &ws.ID, owner.ID)

	_, _, err := f.ledger.Assign(ctx, owner.ID, tk, "ghost@example.com")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	records, err := f.records.ListByTask(ctx, tk.ID)
	require.NoError(t, err)
	assert.Empty(t, records, "a failed assignment must leave no ledger entry")
}
