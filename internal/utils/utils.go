package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ShortenString returns the first l characters of s followed by "..."
// if s is longer than l. A length of 0 disables shortening.
func ShortenString(s string, l int) string {
	r := []rune(s)
	if len(r) > l && l != 0 {
		return fmt.Sprintf("%s...", string(r[:l]))
	}
	return s
}

// RandomString appends a random hex suffix to base, eg. base-1a2b3c4d5e6f7a8b.
func RandomString(base string) (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", base, hex.EncodeToString(b)), nil
}
