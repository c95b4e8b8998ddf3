package workspace

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, ws *Workspace) error
	Get(ctx context.Context, id string) (*Workspace, error)
	// ListByUser returns workspaces the user owns or is a member of.
	ListByUser(ctx context.Context, userID string) ([]*Workspace, error)
	Update(ctx context.Context, ws *Workspace) error
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, m *Member) error
	// AddMemberTx is the transactional variant used by the assignment
	// ledger so membership creation commits atomically with the
	// assignment record.
	AddMemberTx(ctx context.Context, tx *sqlx.Tx, m *Member) error
	IsMember(ctx context.Context, workspaceID, userID string) (bool, error)
	ListMembers(ctx context.Context, workspaceID string) ([]*Member, error)
}
