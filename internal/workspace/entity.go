package workspace

import "time"

type Workspace struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedBy string    `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Member is a (workspace, user) grant giving a non-owner access to tasks
// within the workspace. The owner is an implicit member and has no row.
type Member struct {
	WorkspaceID string    `db:"workspace_id" json:"workspaceId"`
	UserID      string    `db:"user_id" json:"userId"`
	Role        string    `db:"role" json:"role"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

const RoleMember = "member"
