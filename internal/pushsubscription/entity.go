package pushsubscription

import "time"

type Subscription struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	P256dhKey string    `db:"p256dh_key" json:"p256dhKey"`
	AuthKey   string    `db:"auth_key" json:"authKey"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
