// Package custody decides whether assets can be assigned to or received from
// a responsible party, based on the current-custody snapshot served upstream.
package custody

import "EPESPO-inventario/internal/domain"

// Lookup maps an asset id to the custody row that currently holds it.
// It is a derived view: rebuild it whenever the snapshot changes.
type Lookup map[domain.ID]domain.CustodyRow

// BuildLookup indexes rows by asset id. Rows without a usable asset id are
// skipped; a later row for the same asset replaces an earlier one.
func BuildLookup(rows []domain.CustodyRow) Lookup {
	l := make(Lookup, len(rows))
	for _, row := range rows {
		if !row.AssetID.Valid() {
			continue
		}
		l[row.AssetID] = row
	}
	return l
}

// Holder returns the custody row for id, if any.
func (l Lookup) Holder(id domain.ID) (domain.CustodyRow, bool) {
	row, ok := l[id]
	return row, ok
}

// Without returns a copy of l minus the rows created by assignmentID.
func (l Lookup) Without(assignmentID domain.ID) Lookup {
	out := make(Lookup, len(l))
	for id, row := range l {
		if assignmentID.Valid() && row.AssignmentID == assignmentID {
			continue
		}
		out[id] = row
	}
	return out
}

// HeldBy lists the rows held by responsibleID.
func (l Lookup) HeldBy(responsibleID domain.ID) []domain.CustodyRow {
	var out []domain.CustodyRow
	for _, row := range l {
		if row.ResponsibleID == responsibleID {
			out = append(out, row)
		}
	}
	return out
}
