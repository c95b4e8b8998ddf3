package repositoryimpl

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/taskdeck/taskdeck/internal/notification"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

type SQLiteRepository struct {
	db *storage.DB
}

func NewSQLiteRepository(db *storage.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const insertQuery = `
	INSERT INTO notifications (id, user_id, task_id, message, type, read, created_at)
	VALUES (:id, :user_id, :task_id, :message, :type, :read, :created_at)`

func (r *SQLiteRepository) Create(ctx context.Context, n *notification.Notification) error {
	if _, err := r.db.NamedExecContext(ctx, insertQuery, n); err != nil {
		return cerr.WrapStorageWriteError("notification", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, n *notification.Notification) error {
	if _, err := tx.NamedExecContext(ctx, insertQuery, n); err != nil {
		return cerr.WrapStorageWriteError("notification", err)
	}
	return nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*notification.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var ns []*notification.Notification
	err := r.db.SelectContext(ctx, &ns, `
		SELECT * FROM notifications WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, cerr.WrapStorageReadError("notifications", err)
	}
	return ns, nil
}

func (r *SQLiteRepository) MarkRead(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return cerr.WrapStorageWriteError("notification", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return cerr.WrapStorageReadError("notification", storage.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) HasRecentTx(ctx context.Context, tx *sqlx.Tx, taskID, userID string, typ notification.Type, since time.Time) (bool, error) {
	var count int
	err := tx.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM notifications
		WHERE task_id = ? AND user_id = ? AND type = ? AND created_at >= ?`,
		taskID, userID, typ, since)
	if err != nil {
		return false, cerr.WrapStorageReadError("notifications", err)
	}
	return count > 0, nil
}
