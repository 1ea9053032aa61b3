package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a short stable digest of a secret, safe to log.
func Fingerprint(secret string) string {
	if secret == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(hash[:])[:12]
}
