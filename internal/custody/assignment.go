package custody

import (
	"strings"
	"time"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/validation"
)

// Field keys shared with the form layer.
const (
	FieldResponsible = "responsable_id"
	FieldDepartment  = "area_id"
	FieldAssignedOn  = "fecha_asignacion"
	FieldReturnedOn  = "fecha_devolucion"
	FieldAssets      = "bienes"
	FieldGeneral     = "general"
)

// AssignmentCheck is everything ValidateAssignment looks at.
type AssignmentCheck struct {
	Draft    domain.AssignmentDraft
	Selected domain.Selection
	History  []domain.Assignment
	Current  []domain.CustodyRow
	Now      time.Time

	// EditingID, when set, is the assignment being edited: it is ignored by
	// the duplicate check and its own custody rows do not count as conflicts.
	EditingID domain.ID
}

// ValidateAssignment checks a proposed assignment against the history and the
// current custody snapshot. It never mutates its input.
func ValidateAssignment(in AssignmentCheck) validation.Errors {
	errs := validation.Errors{}

	if !in.Draft.ResponsibleID.Valid() {
		errs.Set(FieldResponsible, "Debe seleccionar un responsable")
	}
	if msg := NotFuture(in.Draft.Date, in.Now); msg != "" {
		errs.Set(FieldAssignedOn, msg)
	}
	if !in.Draft.DepartmentID.Valid() {
		errs.Set(FieldDepartment, "Debe seleccionar un departamento / área")
	}

	cats := in.Selected.Categories()
	if in.Selected.Total() == 0 {
		errs.Set(FieldAssets, "Debe seleccionar al menos un bien para asignar")
		return errs
	}

	if hasDuplicateTuple(in.History, in.Draft, cats, in.EditingID) {
		errs.Set(FieldGeneral, "Ya existe una asignación para ese responsable, área y categoría")
		return errs
	}

	occupied := BuildLookup(in.Current).Without(in.EditingID)
	var conflicts []string
	for _, cat := range cats {
		for _, a := range in.Selected[cat] {
			if !a.ID.Valid() {
				continue
			}
			if !CanAssign(occupied, a.ID) {
				conflicts = append(conflicts, Label(a))
			}
		}
	}
	if len(conflicts) > 0 {
		errs.Set(FieldGeneral, "Hay bienes que ya están asignados actualmente: "+strings.Join(conflicts, ", "))
	}
	return errs
}

func hasDuplicateTuple(history []domain.Assignment, d domain.AssignmentDraft, cats []domain.Category, editingID domain.ID) bool {
	for _, a := range history {
		if editingID.Valid() && a.ID == editingID {
			continue
		}
		if a.ResponsibleID != d.ResponsibleID || a.DepartmentID != d.DepartmentID {
			continue
		}
		for _, c := range cats {
			if a.Category == c {
				return true
			}
		}
	}
	return false
}
