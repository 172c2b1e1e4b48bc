package bienes

import (
	"strings"
	"unicode/utf8"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/textnorm"
	"EPESPO-inventario/internal/validation"
)

const (
	minReason = 10
	maxReason = 500
)

// ValidateAsset checks the asset form. Serialised categories need a serial
// number that no other asset uses.
func ValidateAsset(d domain.AssetDraft, all []domain.Asset, editingID domain.ID) validation.Errors {
	errs := validation.Errors{}

	if !d.Category.Valid() {
		errs.Set("categoria", "Debe seleccionar una categoría válida")
	}
	if textnorm.Clean(d.Name) == "" {
		errs.Set("nombre", "El nombre es obligatorio")
	}
	if !d.LocationID.Valid() {
		errs.Set("ubicacion_id", "Debe seleccionar una ubicación")
	}

	if d.Category.HasSerial() {
		serial := textnorm.Key(d.Serial)
		if serial == "" {
			errs.Set("numero_serie", "El número de serie es obligatorio")
		} else {
			for _, a := range all {
				if editingID.Valid() && a.ID == editingID {
					continue
				}
				if textnorm.Key(a.Serial) == serial {
					errs.Set("numero_serie", "Ya existe un bien con este número de serie")
					break
				}
			}
		}
	}

	if legacy := strings.ToLower(strings.TrimSpace(d.LegacyCode)); legacy != "" {
		for _, a := range all {
			if editingID.Valid() && a.ID == editingID {
				continue
			}
			if strings.ToLower(strings.TrimSpace(a.LegacyCode)) == legacy {
				errs.Set("codigo_anterior", "Este código anterior ya está registrado")
				break
			}
		}
	}

	return errs
}

// ValidateDeactivationReason returns the error message for a disposal reason,
// or "".
func ValidateDeactivationReason(reason string) string {
	t := strings.TrimSpace(reason)
	n := utf8.RuneCountInString(t)
	switch {
	case t == "":
		return "Debe ingresar un motivo de baja."
	case n < minReason:
		return "El motivo debe tener al menos 10 caracteres."
	case n > maxReason:
		return "El motivo no debe superar 500 caracteres."
	}
	return ""
}
