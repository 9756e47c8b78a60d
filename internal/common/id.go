package common

import (
	"github.com/google/uuid"
)

// NewRecordID generates a unique aid record ID with the "aid_" prefix
// Format: aid_<uuid>
func NewRecordID() string {
	return "aid_" + uuid.New().String()
}

// NewSessionID generates a unique anonymous session ID with the "anon_" prefix
func NewSessionID() string {
	return "anon_" + uuid.New().String()
}
