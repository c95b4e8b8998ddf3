package notification

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	CreateTx(ctx context.Context, tx *sqlx.Tx, n *Notification) error
	// ListByUser returns the recipient's notifications, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*Notification, error)
	// MarkRead flips the read flag; NotFound when the notification does
	// not exist or belongs to someone else.
	MarkRead(ctx context.Context, id, userID string) error
	// HasRecentTx reports whether a notification of the given type for
	// (task, recipient) was created at or after since. Runs inside the
	// caller's transaction so the check and the subsequent insert are
	// one logical operation.
	HasRecentTx(ctx context.Context, tx *sqlx.Tx, taskID, userID string, typ Type, since time.Time) (bool, error)
}
