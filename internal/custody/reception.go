package custody

import (
	"strings"
	"time"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/validation"
)

type ReceptionCheck struct {
	Draft    domain.ReceptionDraft
	Selected domain.Selection
	Current  []domain.CustodyRow
	Now      time.Time
}

// ValidateReception checks that every selected asset is currently held by the
// responsible party handing it back.
func ValidateReception(in ReceptionCheck) validation.Errors {
	errs := validation.Errors{}

	if !in.Draft.ResponsibleID.Valid() {
		errs.Set(FieldResponsible, "Debe seleccionar un responsable")
	}
	if msg := NotFuture(in.Draft.Date, in.Now); msg != "" {
		errs.Set(FieldReturnedOn, msg)
	}
	if !in.Draft.DepartmentID.Valid() {
		errs.Set(FieldDepartment, "Debe seleccionar un departamento / área")
	}

	if in.Selected.Total() == 0 {
		msg := "Debe seleccionar al menos un bien para la recepción"
		errs.Set(FieldAssets, msg)
		errs.Set(FieldGeneral, msg)
		return errs
	}

	held := BuildLookup(in.Current)
	var mismatched []string
	for _, cat := range in.Selected.Categories() {
		for _, a := range in.Selected[cat] {
			if !a.ID.Valid() {
				continue
			}
			if !CanReceive(held, a.ID, in.Draft.ResponsibleID) {
				mismatched = append(mismatched, Label(a))
			}
		}
	}
	if len(mismatched) > 0 {
		errs.Set(FieldGeneral, "Estos bienes NO están asignados actualmente a este responsable (o ya fueron recibidos): "+
			strings.Join(mismatched, ", "))
	}
	return errs
}
