package repositoryimpl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

type SQLiteRepository struct {
	db *storage.DB
}

func NewSQLiteRepository(db *storage.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, t *task.Task) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO tasks (id, workspace_id, title, description, due_date, priority,
			status, created_by, assigned_to, created_at, updated_at)
		VALUES (:id, :workspace_id, :title, :description, :due_date, :priority,
			:status, :created_by, :assigned_to, :created_at, :updated_at)`, t)
	if err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*task.Task, error) {
	var t task.Task
	err := r.db.GetContext(ctx, &t, `SELECT * FROM tasks WHERE id = ?`, id)
	if err != nil {
		return nil, cerr.WrapStorageReadError("task", storage.NotFoundAs(err, "task"))
	}
	return &t, nil
}

func listQuery(where string, filter task.ListFilter, args []any) (string, string, []any) {
	conds := []string{where}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		conds = append(conds, "priority = ?")
		args = append(args, filter.Priority)
	}
	if filter.AssignedTo != "" {
		conds = append(conds, "assigned_to = ?")
		args = append(args, filter.AssignedTo)
	}
	cond := strings.Join(conds, " AND ")
	return "SELECT * FROM tasks WHERE " + cond + " ORDER BY created_at",
		"SELECT COUNT(*) FROM tasks WHERE " + cond,
		args
}

func (r *SQLiteRepository) list(ctx context.Context, where string, filter task.ListFilter, args []any) ([]*task.Task, int, error) {
	query, countQuery, args := listQuery(where, filter, args)

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, cerr.WrapStorageReadError("tasks", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	var tasks []*task.Task
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, 0, cerr.WrapStorageReadError("tasks", err)
	}
	return tasks, total, nil
}

func (r *SQLiteRepository) ListByWorkspace(ctx context.Context, workspaceID string, filter task.ListFilter) ([]*task.Task, int, error) {
	return r.list(ctx, "workspace_id = ?", filter, []any{workspaceID})
}

func (r *SQLiteRepository) ListGlobal(ctx context.Context, filter task.ListFilter) ([]*task.Task, int, error) {
	return r.list(ctx, "workspace_id IS NULL", filter, nil)
}

func (r *SQLiteRepository) Update(ctx context.Context, t *task.Task) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE tasks SET title = :title, description = :description,
			due_date = :due_date, priority = :priority, status = :status,
			assigned_to = :assigned_to, updated_at = :updated_at
		WHERE id = :id`, t)
	if err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return cerr.WrapStorageReadError("task", storage.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) UpdateAssigneeTx(ctx context.Context, tx *sqlx.Tx, taskID, assigneeID string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE tasks SET assigned_to = ?, updated_at = ? WHERE id = ?`,
		assigneeID, time.Now(), taskID)
	if err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return cerr.WrapStorageReadError("task", storage.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByIDs(ctx context.Context, workspaceID *string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	scope := "workspace_id = ?"
	args := []any{}
	if workspaceID == nil {
		scope = "workspace_id IS NULL"
	} else {
		args = append(args, *workspaceID)
	}
	query, inArgs, err := sqlx.In(
		fmt.Sprintf("DELETE FROM tasks WHERE %s AND id IN (?)", scope),
		append(args, ids)...)
	if err != nil {
		return 0, cerr.NewError(cerr.Internal, "server error", err)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), inArgs...)
	if err != nil {
		return 0, cerr.WrapStorageDeleteError("tasks", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, cerr.NewError(cerr.Internal, "server error", err)
	}
	return int(n), nil
}

func (r *SQLiteRepository) ListDueBetween(ctx context.Context, from, to time.Time, limit int) ([]*task.Task, error) {
	var tasks []*task.Task
	err := r.db.SelectContext(ctx, &tasks, `
		SELECT * FROM tasks
		WHERE due_date IS NOT NULL AND due_date >= ? AND due_date <= ?
			AND status != ? AND assigned_to IS NOT NULL
		ORDER BY due_date
		LIMIT ?`, from, to, task.StatusCompleted, limit)
	if err != nil {
		return nil, cerr.WrapStorageReadError("tasks", err)
	}
	return tasks, nil
}
