package taskmodel

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type ListFilter struct {
	Status     string
	Priority   string
	AssignedTo string
	Limit      int
	Offset     int
}

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	// ListByWorkspace lists workspace tasks; ListGlobal lists the
	// admin pool (tasks without a workspace).
	ListByWorkspace(ctx context.Context, workspaceID string, filter ListFilter) ([]*Task, int, error)
	ListGlobal(ctx context.Context, filter ListFilter) ([]*Task, int, error)
	Update(ctx context.Context, t *Task) error
	// UpdateAssigneeTx is used by the assignment ledger inside its
	// transaction.
	UpdateAssigneeTx(ctx context.Context, tx *sqlx.Tx, taskID, assigneeID string) error
	// DeleteByIDs removes the given tasks scoped to workspaceID (nil for
	// the admin pool) and returns how many rows matched.
	DeleteByIDs(ctx context.Context, workspaceID *string, ids []string) (int, error)
	// ListDueBetween returns non-completed tasks with a due date in
	// [from, to] and a non-null assignee, oldest due first.
	ListDueBetween(ctx context.Context, from, to time.Time, limit int) ([]*Task, error)
}
