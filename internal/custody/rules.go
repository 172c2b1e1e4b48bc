package custody

import "EPESPO-inventario/internal/domain"

type State int

const (
	Available State = iota
	Assigned
)

func (s State) String() string {
	if s == Assigned {
		return "asignado"
	}
	return "disponible"
}

// AssetState is where an asset stands from the gateway's point of view.
type AssetState struct {
	State State
	Row   domain.CustodyRow // set when State == Assigned
}

func StateOf(l Lookup, assetID domain.ID) AssetState {
	if row, ok := l.Holder(assetID); ok {
		return AssetState{State: Assigned, Row: row}
	}
	return AssetState{State: Available}
}

// CanAssign reports whether the asset may go into a new assignment.
func CanAssign(l Lookup, assetID domain.ID) bool {
	return StateOf(l, assetID).State == Available
}

// CanReceive reports whether responsibleID may hand the asset back.
func CanReceive(l Lookup, assetID, responsibleID domain.ID) bool {
	st := StateOf(l, assetID)
	return st.State == Assigned && st.Row.ResponsibleID == responsibleID
}

// EligibleForAssignment also excludes deactivated assets.
func EligibleForAssignment(a domain.Asset, l Lookup) bool {
	return a.Active() && CanAssign(l, a.ID)
}

// Label is the display string used in conflict messages.
func Label(a domain.Asset) string {
	code := a.Code
	if code == "" {
		code = "S/C"
	}
	name := a.Name
	if name == "" {
		name = "Sin nombre"
	}
	return code + " - " + name
}
