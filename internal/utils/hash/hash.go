package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

type Hash struct {
	parts []string
}

// NewHash hashes the given fields. Fields are NUL separated so that
// ("ab", "c") and ("a", "bc") hash differently.
func NewHash(parts ...string) Hash {
	return Hash{parts: parts}
}

func (h Hash) ComputeHash() string {
	sum := sha256.New()
	for _, p := range h.parts {
		sum.Write([]byte(p))
		sum.Write([]byte{0})
	}
	return hex.EncodeToString(sum.Sum(nil))
}
