package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainEvent   = "blockvm/event/v1"
	DomainProject = "blockvm/project/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ThreadID is the identity of a thread: the owning target and the top
// block of the script it runs. At most one thread per ID exists at a time
// unless a hat asks for a concurrent start.
func ThreadID(targetID, topBlockID string) string {
	return targetID + "&" + topBlockID
}

// EventID computes the content-addressed ID of a trace event. The ID is
// stable across replays of the same run given the same inputs.
func EventID(runID string, seq int64, kind, threadID, blockID string, value Value) (string, error) {
	obj := Object{
		"run_id":    String(runID),
		"seq":       Int(seq),
		"kind":      String(kind),
		"thread_id": String(threadID),
		"block_id":  String(blockID),
	}
	if value != nil {
		obj["value"] = value
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}

// ProjectHash fingerprints a project's canonical source so runs can be
// traced back to the exact program they executed.
func ProjectHash(canonicalSource []byte) string {
	return hashWithDomain(DomainProject, canonicalSource)
}

// MustEventID is like EventID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEventID(runID string, seq int64, kind, threadID, blockID string, value Value) string {
	id, err := EventID(runID, seq, kind, threadID, blockID, value)
	if err != nil {
		panic(err)
	}
	return id
}
