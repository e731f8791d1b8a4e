package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// digestKey joins prefix with the digest of v's JSON encoding. v holds only
// plain fields, so encoding cannot fail and equal inputs give equal keys.
func digestKey(prefix string, v any) string {
	raw, _ := json.Marshal(v)
	return prefix + ":" + Hash(raw)
}
