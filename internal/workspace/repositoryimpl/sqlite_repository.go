package repositoryimpl

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/taskdeck/taskdeck/internal/workspace"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

type SQLiteRepository struct {
	db *storage.DB
}

func NewSQLiteRepository(db *storage.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, ws *workspace.Workspace) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO workspaces (id, name, created_by, created_at)
		VALUES (:id, :name, :created_by, :created_at)`, ws)
	if err != nil {
		return cerr.WrapStorageWriteError("workspace", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*workspace.Workspace, error) {
	var ws workspace.Workspace
	err := r.db.GetContext(ctx, &ws, `SELECT * FROM workspaces WHERE id = ?`, id)
	if err != nil {
		return nil, cerr.WrapStorageReadError("workspace", storage.NotFoundAs(err, "workspace"))
	}
	return &ws, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]*workspace.Workspace, error) {
	var wss []*workspace.Workspace
	err := r.db.SelectContext(ctx, &wss, `
		SELECT DISTINCT w.* FROM workspaces w
		LEFT JOIN workspace_members m ON m.workspace_id = w.id
		WHERE w.created_by = ? OR m.user_id = ?
		ORDER BY w.created_at`, userID, userID)
	if err != nil {
		return nil, cerr.WrapStorageReadError("workspaces", err)
	}
	return wss, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, ws *workspace.Workspace) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE workspaces SET name = :name WHERE id = :id`, ws)
	if err != nil {
		return cerr.WrapStorageWriteError("workspace", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return cerr.WrapStorageReadError("workspace", storage.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM workspaces WHERE id = ?`, id)
	if err != nil {
		return cerr.WrapStorageDeleteError("workspace", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return cerr.WrapStorageDeleteError("workspace", storage.ErrNotFound)
	}
	return nil
}

const insertMemberQuery = `
	INSERT INTO workspace_members (workspace_id, user_id, role, created_at)
	VALUES (:workspace_id, :user_id, :role, :created_at)
	ON CONFLICT(workspace_id, user_id) DO NOTHING`

func (r *SQLiteRepository) AddMember(ctx context.Context, m *workspace.Member) error {
	if _, err := r.db.NamedExecContext(ctx, insertMemberQuery, m); err != nil {
		return cerr.WrapStorageWriteError("membership", err)
	}
	return nil
}

func (r *SQLiteRepository) AddMemberTx(ctx context.Context, tx *sqlx.Tx, m *workspace.Member) error {
	if _, err := tx.NamedExecContext(ctx, insertMemberQuery, m); err != nil {
		return cerr.WrapStorageWriteError("membership", err)
	}
	return nil
}

func (r *SQLiteRepository) IsMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM workspace_members
		WHERE workspace_id = ? AND user_id = ?`, workspaceID, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, cerr.WrapStorageReadError("membership", err)
	}
	return count > 0, nil
}

func (r *SQLiteRepository) ListMembers(ctx context.Context, workspaceID string) ([]*workspace.Member, error) {
	var members []*workspace.Member
	err := r.db.SelectContext(ctx, &members, `
		SELECT * FROM workspace_members WHERE workspace_id = ? ORDER BY created_at`, workspaceID)
	if err != nil {
		return nil, cerr.WrapStorageReadError("memberships", err)
	}
	return members, nil
}
