package repositoryimpl

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/pushsubscription"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

type SQLiteRepository struct {
	db *storage.DB
}

func NewSQLiteRepository(db *storage.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, s *pushsubscription.Subscription) error {
	// Re-subscribing an endpoint replaces the previous registration.
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh_key, auth_key, created_at)
		VALUES (:id, :user_id, :endpoint, :p256dh_key, :auth_key, :created_at)
		ON CONFLICT(endpoint) DO UPDATE SET
			user_id = excluded.user_id,
			p256dh_key = excluded.p256dh_key,
			auth_key = excluded.auth_key`, s)
	if err != nil {
		return cerr.WrapStorageWriteError("push subscription", err)
	}
	return nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]*pushsubscription.Subscription, error) {
	var subs []*pushsubscription.Subscription
	err := r.db.SelectContext(ctx, &subs, `
		SELECT * FROM push_subscriptions WHERE user_id = ?`, userID)
	if err != nil {
		return nil, cerr.WrapStorageReadError("push subscriptions", err)
	}
	return subs, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE id = ?`, id); err != nil {
		return cerr.WrapStorageDeleteError("push subscription", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByEndpoint(ctx context.Context, userID, endpoint string) error {
	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM push_subscriptions WHERE user_id = ? AND endpoint = ?`, userID, endpoint); err != nil {
		return cerr.WrapStorageDeleteError("push subscription", err)
	}
	return nil
}
