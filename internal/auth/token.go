package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// userTokenBytes is the entropy of generated reviewer tokens (hex encoded to 48 chars).
const userTokenBytes = 24

// GenerateUserToken creates a random reviewer API token.
// Used when an admin creates a user without supplying a token.
func GenerateUserToken() (string, error) {
	b := make([]byte, userTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate user token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
