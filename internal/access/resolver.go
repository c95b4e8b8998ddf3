package access

import (
	"context"

	task "github.com/taskdeck/taskdeck/internal/task/taskmodel"
	"github.com/taskdeck/taskdeck/internal/workspace"
)

// Resolver decides whether a user may see or mutate a task or workspace.
// All checks are pure reads. Callers report a false result as not found:
// absence of the target and absence of permission are intentionally not
// distinguished.
type Resolver struct {
	workspaces workspace.Repository
}

func NewResolver(workspaces workspace.Repository) *Resolver {
	return &Resolver{workspaces: workspaces}
}

// CanViewTask grants access to the workspace owner, the task's current
// assignee, and workspace members. Tasks without a workspace belong to
// the admin-global pool and are visible only to their creator and
// assignee.
func (r *Resolver) CanViewTask(ctx context.Context, userID string, t *task.Task) (bool, error) {
	if t.AssignedTo != nil && *t.AssignedTo == userID {
		return true, nil
	}
	if t.WorkspaceID == nil {
		return t.CreatedBy == userID, nil
	}
	ws, err := r.workspaces.Get(ctx, *t.WorkspaceID)
	if err != nil {
		return false, err
	}
	if ws.CreatedBy == userID {
		return true, nil
	}
	return r.workspaces.IsMember(ctx, ws.ID, userID)
}

// CanMutateTask applies the same rule as CanViewTask: anyone who can see
// a task may mutate it. Deletion is further restricted to the workspace
// owner by the lifecycle manager.
func (r *Resolver) CanMutateTask(ctx context.Context, userID string, t *task.Task) (bool, error) {
	return r.CanViewTask(ctx, userID, t)
}

// CanViewWorkspace grants workspace-level administration to the owner
// only. Membership grants task-level access within the workspace, not
// control over the workspace itself.
func (r *Resolver) CanViewWorkspace(ctx context.Context, userID string, ws *workspace.Workspace) bool {
	return ws.CreatedBy == userID
}

// CanCreateTask allows the owner and members to create tasks in a
// workspace.
func (r *Resolver) CanCreateTask(ctx context.Context, userID string, ws *workspace.Workspace) (bool, error) {
	if ws.CreatedBy == userID {
		return true, nil
	}
	return r.workspaces.IsMember(ctx, ws.ID, userID)
}
