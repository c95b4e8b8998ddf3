package notification

import "time"

type Type string

const (
	TypeReminder     Type = "reminder"
	TypeStatusChange Type = "status-change"
	TypeAssignment   Type = "assignment"
)

type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	TaskID    *string   `db:"task_id" json:"taskId,omitempty"`
	Message   string    `db:"message" json:"message"`
	Type      Type      `db:"type" json:"type"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
