package departamentos

import (
	"strings"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/textnorm"
	"EPESPO-inventario/internal/validation"
)

// DefaultAllowedNames is used when the configuration does not provide a list.
var DefaultAllowedNames = []string{"Coordinación Académica", "Financiero", "TI"}

// Validate checks a department form. allowed may be nil to accept any name.
func Validate(d domain.DepartmentDraft, all []domain.Department, editingID domain.ID, allowed []string) validation.Errors {
	errs := validation.Errors{}

	if strings.TrimSpace(d.Name) == "" {
		errs.Set("nombre", "El departamento es obligatorio")
	} else if allowed != nil && !contains(allowed, d.Name) {
		errs.Set("nombre", "Debe seleccionar un departamento válido")
	}

	if strings.TrimSpace(d.Location) == "" {
		errs.Set("ubicacion", "La ubicación es obligatoria")
	}
	if !d.ResponsibleID.Valid() {
		errs.Set("responsable_id", "Debe seleccionar un responsable")
	}

	name, loc := textnorm.Key(d.Name), textnorm.Key(d.Location)
	for _, dep := range all {
		if editingID.Valid() && dep.ID == editingID {
			continue
		}
		if textnorm.Key(dep.Name) == name && textnorm.Key(dep.Location) == loc {
			errs.Set("nombreUbicacion", "Ya existe un departamento con ese nombre y ubicación")
			break
		}
	}

	return errs
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
