package repositoryimpl

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/taskdeck/taskdeck/internal/assignment"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

type SQLiteRepository struct {
	db *storage.DB
}

func NewSQLiteRepository(db *storage.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, rec *assignment.Record) error {
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO assignment_records (id, task_id, user_id, created_at)
		VALUES (:id, :task_id, :user_id, :created_at)`, rec)
	if err != nil {
		return cerr.WrapStorageWriteError("assignment record", err)
	}
	return nil
}

func (r *SQLiteRepository) ListByTask(ctx context.Context, taskID string) ([]*assignment.Record, error) {
	var recs []*assignment.Record
	err := r.db.SelectContext(ctx, &recs, `
		SELECT * FROM assignment_records WHERE task_id = ? ORDER BY created_at`, taskID)
	if err != nil {
		return nil, cerr.WrapStorageReadError("assignment records", err)
	}
	return recs, nil
}
