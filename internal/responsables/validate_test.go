package responsables

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"EPESPO-inventario/internal/domain"
)

func TestValidCedula(t *testing.T) {
	valid := []string{"1710034065", "0926687856", "171003406-5"}
	for _, c := range valid {
		assert.Empty(t, ValidCedula(c), c)
	}

	tests := []struct {
		cedula string
		want   string
	}{
		{"171003406", "La cédula debe tener exactamente 10 dígitos"},
		{"17100340650", "La cédula debe tener exactamente 10 dígitos"},
		{"2510034065", "La cédula no pertenece a una provincia válida"},
		{"0010034065", "La cédula no pertenece a una provincia válida"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidCedula(tt.cedula), tt.cedula)
	}
}

func TestValidCedulaAlteredCheckDigit(t *testing.T) {
	base := "171003406"
	for d := '0'; d <= '9'; d++ {
		c := base + string(d)
		if d == '5' {
			assert.Empty(t, ValidCedula(c))
			continue
		}
		assert.Equal(t, "La cédula ecuatoriana no es válida", ValidCedula(c), c)
	}
}

func validDraft() domain.ResponsibleDraft {
	return domain.ResponsibleDraft{
		Title:      "Ing.",
		FirstName:  "María José",
		LastName:   "Muñoz-Peña",
		Email:      " MJ.Munoz@Epespo.edu.ec ",
		NationalID: "1710034065",
		JobTitle:   "Analista (TI), Nivel 2.",
	}
}

func TestValidate(t *testing.T) {
	assert.Empty(t, Validate(validDraft()))

	tests := []struct {
		name  string
		edit  func(*domain.ResponsibleDraft)
		field string
		msg   string
	}{
		{"no title", func(d *domain.ResponsibleDraft) { d.Title = "  " }, "titulo", "El título profesional es obligatorio"},
		{"short name", func(d *domain.ResponsibleDraft) { d.FirstName = "J" }, "nombre", "El nombre debe tener al menos 2 caracteres"},
		{"digits in surname", func(d *domain.ResponsibleDraft) { d.LastName = "Pérez2" }, "apellido", "El apellido solo puede contener letras y espacios"},
		{"bad email", func(d *domain.ResponsibleDraft) { d.Email = "mj@epespo" }, "correo", "El correo no es válido"},
		{"no cedula", func(d *domain.ResponsibleDraft) { d.NationalID = "--" }, "cedula", "La cédula es obligatoria"},
		{"long job", func(d *domain.ResponsibleDraft) { d.JobTitle = strings.Repeat("a", 101) }, "cargo", "El cargo no debe superar 100 caracteres"},
		{"job symbols", func(d *domain.ResponsibleDraft) { d.JobTitle = "Jefe #1" }, "cargo", "El cargo contiene caracteres no válidos"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.edit(&d)
			errs := Validate(d)
			assert.Len(t, errs, 1)
			assert.Equal(t, tt.msg, errs[tt.field])
		})
	}
}

func TestValidateUnique(t *testing.T) {
	all := []domain.Responsible{
		{ID: 1, Email: "mj.munoz@epespo.edu.ec", NationalID: "0926687856"},
		{ID: 2, Email: "otro@epespo.edu.ec", NationalID: "1710034065"},
	}

	errs := ValidateUnique(validDraft(), all, 0)
	assert.Equal(t, "Ya existe un responsable con este correo", errs["correo"])
	assert.Equal(t, "Ya existe un responsable con esta cédula", errs["cedula"])

	d := validDraft()
	d.NationalID = "0926687856"
	assert.Empty(t, ValidateUnique(d, all, 1))
}
