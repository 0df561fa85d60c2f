// Package kv provides the durable key-value store capability the engine
// persists through. The engine treats the store as best-effort: a failed
// write is logged and swallowed, and the in-memory state stays authoritative
// for the running process.
package kv

// Store is the minimal durable key-value capability. Get reports whether the
// key exists; a missing key is not an error.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Keys under which the engine persists its structures. Nothing outside the
// engine reads these, so the exact strings are not a compatibility surface.
const (
	KeyEvents      = "merchstack:events"
	KeyBehaviors   = "merchstack:behaviors"
	KeyProfiles    = "merchstack:profiles"
	KeyExperiments = "merchstack:experiments"
	KeyAssignments = "merchstack:assignments"
)
