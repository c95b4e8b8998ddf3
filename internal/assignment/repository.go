package assignment

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, rec *Record) error
	ListByTask(ctx context.Context, taskID string) ([]*Record, error)
}
