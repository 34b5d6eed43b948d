package stream

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewStreamID generates a stream identifier of the form "{prefix}_{hex32}"
// where hex32 is 32 hex characters of cryptographically secure randomness.
func NewStreamID(prefix string) (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("failed to read random bytes for stream ID: %w", err)
	}
	return prefix + "_" + hex.EncodeToString(buf[:]), nil
}
