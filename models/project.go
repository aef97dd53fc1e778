package models

import "time"

// Project groups time records. Membership lives in the project_users table.
type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"-"`
	UserIDs   []int64   `json:"users"`
}
