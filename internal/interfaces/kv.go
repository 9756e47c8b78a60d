package interfaces

import (
	"errors"
	"time"
)

// ErrKeyNotFound is returned when a key does not exist in the KV store
var ErrKeyNotFound = errors.New("key not found")

// KeyValuePair represents a stored key/value entry
type KeyValuePair struct {
	Key       string    `json:"key" badgerhold:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
