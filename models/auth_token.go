package models

import "time"

// AuthToken is the single persistent API key issued to a user.
type AuthToken struct {
	Key       string    `json:"key"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
