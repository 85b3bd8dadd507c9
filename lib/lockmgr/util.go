package lockmgr

import (
	"crypto/rand"
	"encoding/hex"
)

const (
	ownerIDBytes = 32
)

// generateOwnerID creates a new unique owner ID
// The owner ID is a random byte slice of length 32 (256 bit).
func generateOwnerID() ([]byte, error) {
	randomBytes := make([]byte, ownerIDBytes)
	_, err := rand.Read(randomBytes)
	return randomBytes, err
}

// encodeOwnerID returns the marker file content for an owner ID
func encodeOwnerID(ownerID []byte) []byte {
	return []byte(hex.EncodeToString(ownerID))
}
