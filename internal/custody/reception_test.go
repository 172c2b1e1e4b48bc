package custody

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/validation"
)

func receptionFor(responsible domain.ID, sel domain.Selection) ReceptionCheck {
	return ReceptionCheck{
		Draft:    domain.ReceptionDraft{ResponsibleID: responsible, Date: "2026-10-14", DepartmentID: 3},
		Selected: sel,
		Current: []domain.CustodyRow{
			{AssetID: laptop.ID, ResponsibleID: 7, DepartmentID: 3, AssignmentID: 90},
		},
		Now: testNow,
	}
}

func TestValidateReceptionEligible(t *testing.T) {
	in := receptionFor(7, domain.Selection{domain.CategoryComputer: {laptop}})
	assert.Empty(t, ValidateReception(in))
}

func TestValidateReceptionOtherResponsible(t *testing.T) {
	in := receptionFor(8, domain.Selection{domain.CategoryComputer: {laptop}})

	errs := ValidateReception(in)

	assert.Equal(t, validation.Errors{
		FieldGeneral: "Estos bienes NO están asignados actualmente a este responsable (o ya fueron recibidos): E-EC-2026-001 - Laptop",
	}, errs)
}

func TestValidateReceptionNotAssigned(t *testing.T) {
	in := receptionFor(7, domain.Selection{
		domain.CategoryComputer:  {laptop},
		domain.CategoryFurniture: {desk},
	})

	errs := ValidateReception(in)

	assert.Contains(t, errs[FieldGeneral], "E-ME-2026-001 - Escritorio")
	assert.NotContains(t, errs[FieldGeneral], "Laptop")
}

func TestValidateReceptionZeroSelection(t *testing.T) {
	in := receptionFor(7, domain.Selection{})

	errs := ValidateReception(in)

	msg := "Debe seleccionar al menos un bien para la recepción"
	assert.Equal(t, validation.Errors{FieldAssets: msg, FieldGeneral: msg}, errs)
}

func TestValidateReceptionHeaderFields(t *testing.T) {
	in := receptionFor(0, domain.Selection{domain.CategoryComputer: {laptop}})
	in.Draft.Date = "mañana"
	in.Draft.DepartmentID = 0

	errs := ValidateReception(in)

	assert.Equal(t, "Debe seleccionar un responsable", errs[FieldResponsible])
	assert.Equal(t, "La fecha no es válida", errs[FieldReturnedOn])
	assert.Equal(t, "Debe seleccionar un departamento / área", errs[FieldDepartment])
	// with no responsible nothing is eligible
	assert.True(t, errs.Has(FieldGeneral))
}
