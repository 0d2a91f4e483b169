// Package idhash derives deterministic identifiers.
package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// runIDBytes is how many hash bytes make it into a run ID.
const runIDBytes = 12

// ComputeRunID computes a deterministic run_id.
// Formula: base58(SHA256(coin|started_at_ns|sequence)[:12])
// The same inputs always produce the same ID.
func ComputeRunID(coin string, startedAtNs int64, sequence uint64) string {
	data := fmt.Sprintf("%s|%d|%d", coin, startedAtNs, sequence)
	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:runIDBytes])
}
