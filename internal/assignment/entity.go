package assignment

import "time"

// Record is one append-only ledger entry; rows are never updated or
// deleted, including on reassignment to the same user.
type Record struct {
	ID        string    `db:"id" json:"id"`
	TaskID    string    `db:"task_id" json:"taskId"`
	UserID    string    `db:"user_id" json:"userId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
