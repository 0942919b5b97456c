package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short returns the first 12 hex characters, enough to tell datasets apart in logs.
func (h Hash) Short() string {
	if len(h) < 12 {
		return string(h)
	}
	return string(h[:12])
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// RegistryHash fingerprints the literal content of a measurement registry.
type RegistryHash Hash

func (h RegistryHash) String() string { return Hash(h).String() }
func (h RegistryHash) Short() string  { return Hash(h).Short() }

// ComputeRegistryHash hashes entries in the given order. Values are
// formatted with %.17g so that any change in a literal changes the hash.
func ComputeRegistryHash(names []string, values [][]float64) RegistryHash {
	var data strings.Builder
	for i, name := range names {
		data.WriteString(name)
		data.WriteByte('=')
		if i < len(values) {
			for _, v := range values[i] {
				data.WriteString(fmt.Sprintf("%.17g,", v))
			}
		}
		data.WriteByte(';')
	}
	return RegistryHash(NewHash([]byte(data.String())))
}
