package records

import (
	"futureweaver/domain/core"
)

// Stamp returns a copy of rec carrying an id and created_at. Values already present
// are kept; an empty id counts as absent.
func Stamp(rec Record, newID core.IDSource, now core.Clock) Record {
	out := rec.Clone()
	if id := core.ID(FormatValue(out[FieldID])); id.IsEmpty() {
		out[FieldID] = newID().String()
	} else {
		out[FieldID] = id.String()
	}
	if _, ok := out[FieldCreatedAt]; !ok {
		out[FieldCreatedAt] = core.NewTimestamp(now()).String()
	}
	return out
}
