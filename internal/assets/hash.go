package assets

import (
	"crypto/sha256"
	"encoding/hex"
)

const digestHexLength = sha256.Size * 2

// Digest returns the lowercase hex SHA-256 of raw. It is the canonical asset id.
func Digest(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// IsDigest reports whether id has the shape of a Digest result.
func IsDigest(id string) bool {
	if len(id) != digestHexLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
