package comment

import "context"

type Repository interface {
	Create(ctx context.Context, c *Comment) error
	// ListByTask returns the task's comments in insert order, oldest
	// first.
	ListByTask(ctx context.Context, taskID string) ([]*Comment, error)
}
