package utils

import "github.com/google/uuid"

// GenerateID returns a random UUID string.
func GenerateID() string {
	return uuid.NewString()
}
