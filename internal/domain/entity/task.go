package entity

import (
	"time"
)

// Task belongs to exactly one User. OwnerID is fixed at creation and never
// reassigned.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    bool      `json:"status"`
	OwnerID   string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
