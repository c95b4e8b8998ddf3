package comment

import "time"

type Comment struct {
	ID        string    `db:"id" json:"id"`
	TaskID    string    `db:"task_id" json:"taskId"`
	UserID    string    `db:"user_id" json:"userId"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	// AuthorName is joined from users on reads and not stored on the
	// comment row.
	AuthorName string `db:"author_name" json:"authorName,omitempty"`
}
