package repositoryimpl

import (
	"context"
	"strings"

	"github.com/taskdeck/taskdeck/internal/user"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

type SQLiteRepository struct {
	db *storage.DB
}

func NewSQLiteRepository(db *storage.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, email, password_hash, created_at)
		VALUES (:id, :first_name, :last_name, :email, :password_hash, :created_at)`, u)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return cerr.WrapStorageWriteError("user", storage.ErrConflict)
		}
		return cerr.WrapStorageWriteError("user", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, cerr.WrapStorageReadError("user", storage.NotFoundAs(err, "user"))
	}
	return &u, nil
}

func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, cerr.WrapStorageReadError("user", storage.NotFoundAs(err, "user"))
	}
	return &u, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*user.User, error) {
	var users []*user.User
	err := r.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY created_at`)
	if err != nil {
		return nil, cerr.WrapStorageReadError("users", err)
	}
	return users, nil
}
