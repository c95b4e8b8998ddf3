package assignment

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"

	"github.com/taskdeck/taskdeck/internal/eventbus"
	task "github.com/taskdeck/taskdeck/internal/task/taskmodel"
	"github.com/taskdeck/taskdeck/internal/user"
	"github.com/taskdeck/taskdeck/internal/workspace"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

// Ledger applies assignee changes. Every call appends exactly one record,
// even when the task is reassigned to the user it already has. If the new
// assignee is not yet a member of the task's workspace, a membership row
// is created in the same transaction as the record and the task update.
type Ledger struct {
	db         *storage.DB
	tasks      task.Repository
	users      user.Repository
	workspaces workspace.Repository
	records    Repository
	bus        *eventbus.Bus
}

func NewLedger(
	db *storage.DB,
	tasks task.Repository,
	users user.Repository,
	workspaces workspace.Repository,
	records Repository,
	bus *eventbus.Bus,
) *Ledger {
	return &Ledger{
		db:         db,
		tasks:      tasks,
		users:      users,
		workspaces: workspaces,
		records:    records,
		bus:        bus,
	}
}

// ResolveAssignee looks the assignee up by email when the reference
// contains '@', by id otherwise.
func (l *Ledger) ResolveAssignee(ctx context.Context, ref string) (*user.User, error) {
	ref = strings.TrimSpace(ref)
	if strings.Contains(ref, "@") {
		return l.users.GetByEmail(ctx, strings.ToLower(ref))
	}
	return l.users.Get(ctx, ref)
}

// Assign records the assignment and returns the updated task together
// with the new ledger record. The caller is responsible for the
// permission check.
func (l *Ledger) Assign(ctx context.Context, actorID string, t *task.Task, assigneeRef string) (*task.Task, *Record, error) {
	assignee, err := l.ResolveAssignee(ctx, assigneeRef)
	if err != nil {
		return nil, nil, err
	}

	rec := &Record{
		ID:        ulid.Make().String(),
		TaskID:    t.ID,
		UserID:    assignee.ID,
		CreatedAt: time.Now(),
	}

	err = l.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if t.WorkspaceID != nil {
			ws, err := l.workspaces.Get(ctx, *t.WorkspaceID)
			if err != nil {
				return err
			}
			// The owner is an implicit member and gets no row.
			if ws.CreatedBy != assignee.ID {
				m := &workspace.Member{
					WorkspaceID: ws.ID,
					UserID:      assignee.ID,
					Role:        workspace.RoleMember,
					CreatedAt:   time.Now(),
				}
				if err := l.workspaces.AddMemberTx(ctx, tx, m); err != nil {
					return err
				}
			}
		}
		if err := l.records.CreateTx(ctx, tx, rec); err != nil {
			return err
		}
		return l.tasks.UpdateAssigneeTx(ctx, tx, t.ID, assignee.ID)
	})
	if err != nil {
		return nil, nil, err
	}

	t.AssignedTo = &assignee.ID
	t.UpdatedAt = time.Now()

	l.bus.PublishNew(eventbus.EventTaskAssigned, t.ID, actorID, map[string]string{
		"assignee_id": assignee.ID,
		"task_title":  t.Title,
	})

	return t, rec, nil
}
