package util

import "github.com/google/uuid"

// GenerateUUID returns a random v4 UUID string for purchase and outbox ids.
func GenerateUUID() string {
	return uuid.NewString()
}
