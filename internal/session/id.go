package session

import (
	"fmt"

	"atelier-auth/internal/utils"
)

// GenerateID generates a session ID with 256 bits of entropy.
func GenerateID() (string, error) {
	id, err := utils.RandomString(32)
	if err != nil {
		return "", fmt.Errorf("session: failed to generate id: %w", err)
	}
	return id, nil
}
