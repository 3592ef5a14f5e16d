package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns a hex SHA-256 over the parts, NUL-separated so that
// ("ab", "c") and ("a", "bc") hash differently.
func ContentHash(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
