package repositoryimpl

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/comment"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

type SQLiteRepository struct {
	db *storage.DB
}

func NewSQLiteRepository(db *storage.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, c *comment.Comment) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO comments (id, task_id, user_id, text, created_at)
		VALUES (:id, :task_id, :user_id, :text, :created_at)`, c)
	if err != nil {
		return cerr.WrapStorageWriteError("comment", err)
	}
	return nil
}

func (r *SQLiteRepository) ListByTask(ctx context.Context, taskID string) ([]*comment.Comment, error) {
	var cs []*comment.Comment
	err := r.db.SelectContext(ctx, &cs, `
		SELECT c.id, c.task_id, c.user_id, c.text, c.created_at,
		       u.first_name || ' ' || u.last_name AS author_name
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.task_id = ?
		ORDER BY c.created_at ASC, c.id ASC`, taskID)
	if err != nil {
		return nil, cerr.WrapStorageReadError("comments", err)
	}
	return cs, nil
}
