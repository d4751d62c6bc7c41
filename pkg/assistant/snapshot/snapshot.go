package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"watchfolio-be/pkg/store"
)

// Snapshot is the serializable projection of a session used to detect no-op
// persistence writes. Two snapshots are equal iff their canonical
// serializations are byte-identical.
type Snapshot struct {
	SessionID string                 `json:"session_id"`
	Mode      store.Mode             `json:"mode"`
	Title     string                 `json:"title,omitempty"`
	Messages  []store.Turn           `json:"messages"`
	Results   *store.ResultSet       `json:"results,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Canonical returns the deterministic serialization of the snapshot. Struct
// field order is fixed and encoding/json sorts map keys, so logically-equal
// snapshots always canonicalize identically.
func (s Snapshot) Canonical() string {
	data, err := json.Marshal(s)
	if err != nil {
		// Metadata holding an unmarshalable value is a programming error;
		// fall back to a representation that still compares consistently.
		return fmt.Sprintf("%#v", s)
	}
	return string(data)
}

// ShouldPersist reports whether candidate differs from the last issued
// snapshot. It returns true when no snapshot has been issued yet. Pure: it
// knows nothing about timers or network state.
func ShouldPersist(candidate Snapshot, lastIssued string) bool {
	if lastIssued == "" {
		return true
	}
	return candidate.Canonical() != lastIssued
}

// Stored is a persisted session as returned by the session store, the
// snapshot shape plus the server-assigned update time.
type Stored struct {
	Snapshot
	UpdatedAt time.Time
}
