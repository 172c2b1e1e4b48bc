package usuarios

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"EPESPO-inventario/internal/validation"
)

var (
	reRecoveryEmail = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	reResetCode     = regexp.MustCompile(`^\d{6}$`)
)

const minResetPassword = 8

// ValidateRecoveryEmail checks the "forgot password" form.
func ValidateRecoveryEmail(email string) validation.Errors {
	errs := validation.Errors{}
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		errs.Set("correo", "El correo es obligatorio")
	case !reRecoveryEmail.MatchString(email):
		errs.Set("correo", "Correo no válido")
	}
	return errs
}

// PasswordReset is the form that redeems the emailed 6-digit code.
type PasswordReset struct {
	Email        string `json:"correo"`
	Code         string `json:"codigo"`
	Password     string `json:"contrasena"`
	Confirmation string `json:"contrasena_confirmation"`
}

func ValidatePasswordReset(r PasswordReset) validation.Errors {
	errs := ValidateRecoveryEmail(r.Email)

	switch {
	case r.Code == "":
		errs.Set("codigo", "El código es obligatorio")
	case !reResetCode.MatchString(r.Code):
		errs.Set("codigo", "Debe tener 6 dígitos")
	}

	switch {
	case r.Password == "":
		errs.Set("contrasena", "La contraseña es obligatoria")
	case utf8.RuneCountInString(r.Password) < minResetPassword:
		errs.Set("contrasena", "Mínimo 8 caracteres")
	}

	switch {
	case r.Confirmation == "":
		errs.Set("contrasena_confirmation", "Confirma la contraseña")
	case r.Confirmation != r.Password:
		errs.Set("contrasena_confirmation", "No coincide")
	}
	return errs
}
