package task

import "github.com/taskdeck/taskdeck/internal/task/taskmodel"

// The entity and repository types live in the taskmodel subpackage so
// that access and assignment can depend on them without importing the
// HTTP server in this package. The aliases below keep task.Task etc. as
// the canonical names for every other caller.

type Priority = taskmodel.Priority

const (
	PriorityLow    = taskmodel.PriorityLow
	PriorityMedium = taskmodel.PriorityMedium
	PriorityHigh   = taskmodel.PriorityHigh
)

type Status = taskmodel.Status

const (
	StatusPending    = taskmodel.StatusPending
	StatusInProgress = taskmodel.StatusInProgress
	StatusCompleted  = taskmodel.StatusCompleted
)

type Task = taskmodel.Task

type ListFilter = taskmodel.ListFilter

type Repository = taskmodel.Repository

func NormalizePriority(s string) Priority { return taskmodel.NormalizePriority(s) }

func ParseStatus(s string) (Status, error) { return taskmodel.ParseStatus(s) }
