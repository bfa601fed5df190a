package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
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

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// RunFingerprint identifies a simulation run by its inputs and headline
// outputs. Two runs with the same fingerprint executed the same parameters
// and produced the same results.
type RunFingerprint Hash

func (h RunFingerprint) String() string { return Hash(h).String() }

// ComputeRunFingerprint derives a deterministic fingerprint from run
// parameters and headline numbers. Map iteration order does not leak in:
// keys are sorted before hashing.
func ComputeRunFingerprint(params map[string]interface{}, headline map[string]float64) RunFingerprint {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString(fmt.Sprintf("%v", params[key]))
	}

	hkeys := make([]string, 0, len(headline))
	for k := range headline {
		hkeys = append(hkeys, k)
	}
	sort.Strings(hkeys)

	for _, key := range hkeys {
		data.WriteString(key)
		data.WriteString(fmt.Sprintf("%.12g", headline[key]))
	}

	return RunFingerprint(NewHash([]byte(data.String())))
}
