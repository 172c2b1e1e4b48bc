package usuarios

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/validation"
)

var reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPassword = 6

// Validate checks the user form. editingID is 0 when creating; then the
// password is mandatory.
func Validate(d domain.UserDraft, all []domain.User, editingID domain.ID) validation.Errors {
	errs := validation.Errors{}

	name := strings.TrimSpace(d.Name)
	email := strings.TrimSpace(d.Email)
	role := strings.TrimSpace(string(d.Role))

	switch {
	case name == "":
		errs.Set("nombre", "El nombre es obligatorio")
	case utf8.RuneCountInString(name) < 3:
		errs.Set("nombre", "El nombre debe tener al menos 3 caracteres")
	}

	switch {
	case email == "":
		errs.Set("correo", "El correo es obligatorio")
	case !reEmail.MatchString(email):
		errs.Set("correo", "El correo no tiene un formato válido")
	}

	if !editingID.Valid() {
		switch {
		case d.Password == "":
			errs.Set("contrasena", "La contraseña es obligatoria")
		case utf8.RuneCountInString(d.Password) < minPassword:
			errs.Set("contrasena", "La contraseña debe tener al menos 6 caracteres")
		}
	} else if d.Password != "" && utf8.RuneCountInString(d.Password) < minPassword {
		errs.Set("contrasena", "Si cambia la contraseña, debe tener al menos 6 caracteres")
	}

	if role == "" {
		errs.Set("rol", "Debe seleccionar un rol")
	}

	if email != "" {
		lower := strings.ToLower(email)
		for _, u := range all {
			if editingID.Valid() && u.ID == editingID {
				continue
			}
			if strings.ToLower(u.Email) == lower {
				errs.Set("correo", "Ya existe un usuario con este correo")
				break
			}
		}
	}

	return errs
}

// ValidateLogin checks the login form before credentials are sent upstream.
func ValidateLogin(email, password string) validation.Errors {
	errs := validation.Errors{}
	switch {
	case email == "":
		errs.Set("correo", "El correo es obligatorio !")
	case !reEmail.MatchString(email):
		errs.Set("correo", "Correo no válido ")
	}
	switch {
	case password == "":
		errs.Set("contrasena", "La contraseña es obligatoria !")
	case utf8.RuneCountInString(password) < minPassword:
		errs.Set("contrasena", "La contraseña debe tener al menos 6 caracteres ")
	}
	return errs
}
