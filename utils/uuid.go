package utils

import (
	"github.com/google/uuid"
)

// GenerateID mints a random UUID for bids, sessions and chat messages
func GenerateID() string {
	return uuid.New().String()
}
