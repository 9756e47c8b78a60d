package models

import "time"

// AidRecord is a crowd-submitted aid/property listing.
// Timestamps and session identity are assigned server-side on append.
type AidRecord struct {
	ID        string    `json:"id" badgerhold:"key"`
	Name      string    `json:"name" validate:"required,min=2,max=120"`
	Location  string    `json:"location" validate:"required,min=2,max=200"`
	Category  string    `json:"category" validate:"required,oneof=shelter food medical transport supplies other"`
	Capacity  int       `json:"capacity" validate:"gte=0,lte=100000"`
	Contact   string    `json:"contact" validate:"required,min=3,max=120"`
	Notes     string    `json:"notes" validate:"max=2000"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at" badgerholdIndex:"CreatedAt"`
}
