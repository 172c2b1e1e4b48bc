package departamentos

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/validation"
)

var existing = []domain.Department{
	{ID: 1, Name: "TI", Location: "Bloque A, Planta 2", ResponsibleID: 4},
	{ID: 2, Name: "Financiero", Location: "Bloque B", ResponsibleID: 5},
}

func TestValidateRequired(t *testing.T) {
	errs := Validate(domain.DepartmentDraft{}, nil, 0, DefaultAllowedNames)

	assert.Equal(t, validation.Errors{
		"nombre":         "El departamento es obligatorio",
		"ubicacion":      "La ubicación es obligatoria",
		"responsable_id": "Debe seleccionar un responsable",
	}, errs)
}

func TestValidateAllowList(t *testing.T) {
	d := domain.DepartmentDraft{Name: "Marketing", Location: "Bloque C", ResponsibleID: 1}

	assert.Equal(t, "Debe seleccionar un departamento válido", Validate(d, nil, 0, DefaultAllowedNames)["nombre"])
	assert.Empty(t, Validate(d, nil, 0, nil))
}

func TestValidateDuplicatePair(t *testing.T) {
	d := domain.DepartmentDraft{Name: "TI", Location: "  bloque a,   planta 2 ", ResponsibleID: 9}

	errs := Validate(d, existing, 0, DefaultAllowedNames)
	assert.Equal(t, validation.Errors{"nombreUbicacion": "Ya existe un departamento con ese nombre y ubicación"}, errs)

	// editing the same record keeps its own pair
	assert.Empty(t, Validate(d, existing, 1, DefaultAllowedNames))

	// same name, different location
	d.Location = "Bloque B"
	assert.Empty(t, Validate(d, existing, 0, DefaultAllowedNames))
}
