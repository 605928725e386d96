// Package editlog computes field-level diffs between entity snapshots and
// maintains append-only edit histories.
package editlog

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Change records a single field mutation. From and To keep the structured
// value so consumers can render list and object fields later.
type Change struct {
	Field string `json:"field"`
	From  any    `json:"from"`
	To    any    `json:"to"`
}

// Entry is one append-only edit record on an entity.
type Entry struct {
	EditedBy uuid.UUID `json:"editedBy"`
	EditedAt time.Time `json:"editedAt"`
	Changes  []Change  `json:"changes"`
}

// ComputeDiff compares the tracked fields of two snapshots. Values are
// serialized canonically (json.Marshal sorts map keys) so structurally equal
// values never produce a change.
func ComputeDiff(before, after map[string]any, fields []string) []Change {
	var changes []Change
	for _, field := range fields {
		b, err := json.Marshal(before[field])
		if err != nil {
			continue
		}
		a, err := json.Marshal(after[field])
		if err != nil {
			continue
		}
		if bytes.Equal(b, a) {
			continue
		}
		changes = append(changes, Change{Field: field, From: before[field], To: after[field]})
	}
	return changes
}

// Append pushes a new entry when changes is non-empty. Empty change sets
// produce no entry.
func Append(edits []Entry, actor uuid.UUID, at time.Time, changes []Change) []Entry {
	if len(changes) == 0 {
		return edits
	}
	return append(edits, Entry{EditedBy: actor, EditedAt: at, Changes: changes})
}
