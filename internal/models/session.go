package models

import "time"

// Session is the settled identity attached to crowd submissions.
type Session struct {
	ID        string    `json:"id" badgerhold:"key"`
	Anonymous bool      `json:"anonymous"`
	CreatedAt time.Time `json:"created_at"`
}
