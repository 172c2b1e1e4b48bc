package responsables

import (
	"regexp"
	"unicode/utf8"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/textnorm"
	"EPESPO-inventario/internal/validation"
)

var (
	reName     = regexp.MustCompile(`^[A-Za-zÁÉÍÓÚáéíóúÑñ\s'-]+$`)
	reJobTitle = regexp.MustCompile(`^[A-Za-zÁÉÍÓÚáéíóúÑñ0-9\s.,\-()]+$`)
	reEmail    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ValidCedula checks an Ecuadorian national id number. It returns the error
// message, or "" when the number is valid.
func ValidCedula(raw string) string {
	c := textnorm.Digits(raw)
	if len(c) != 10 {
		return "La cédula debe tener exactamente 10 dígitos"
	}

	province := int(c[0]-'0')*10 + int(c[1]-'0')
	if province < 1 || province > 24 {
		return "La cédula no pertenece a una provincia válida"
	}

	total := 0
	for i := 0; i < 9; i++ {
		n := int(c[i] - '0')
		if i%2 == 0 {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		total += n
	}
	check := (10 - total%10) % 10
	if check != int(c[9]-'0') {
		return "La cédula ecuatoriana no es válida"
	}
	return ""
}

// Validate checks the responsible-party form.
func Validate(d domain.ResponsibleDraft) validation.Errors {
	errs := validation.Errors{}

	title := textnorm.Clean(d.Title)
	first := textnorm.Clean(d.FirstName)
	last := textnorm.Clean(d.LastName)
	email := textnorm.Email(d.Email)
	cedula := textnorm.Digits(d.NationalID)
	job := textnorm.Clean(d.JobTitle)

	if title == "" {
		errs.Set("titulo", "El título profesional es obligatorio")
	}

	if msg := personName(first, "El nombre"); msg != "" {
		errs.Set("nombre", msg)
	}
	if msg := personName(last, "El apellido"); msg != "" {
		errs.Set("apellido", msg)
	}

	switch {
	case email == "":
		errs.Set("correo", "El correo es obligatorio")
	case !reEmail.MatchString(email):
		errs.Set("correo", "El correo no es válido")
	}

	if cedula == "" {
		errs.Set("cedula", "La cédula es obligatoria")
	} else if msg := ValidCedula(cedula); msg != "" {
		errs.Set("cedula", msg)
	}

	n := utf8.RuneCountInString(job)
	switch {
	case job == "":
		errs.Set("cargo", "El cargo es obligatorio")
	case n < 2:
		errs.Set("cargo", "El cargo debe tener al menos 2 caracteres")
	case n > 100:
		errs.Set("cargo", "El cargo no debe superar 100 caracteres")
	case !reJobTitle.MatchString(job):
		errs.Set("cargo", "El cargo contiene caracteres no válidos")
	}

	return errs
}

func personName(v, subject string) string {
	switch {
	case v == "":
		return subject + " es obligatorio"
	case utf8.RuneCountInString(v) < 2:
		return subject + " debe tener al menos 2 caracteres"
	case !reName.MatchString(v):
		return subject + " solo puede contener letras y espacios"
	}
	return ""
}

// ValidateUnique rejects a cédula or email already used by another record.
func ValidateUnique(d domain.ResponsibleDraft, all []domain.Responsible, editingID domain.ID) validation.Errors {
	errs := validation.Errors{}
	cedula := textnorm.Digits(d.NationalID)
	email := textnorm.Email(d.Email)

	for _, r := range all {
		if editingID.Valid() && r.ID == editingID {
			continue
		}
		if cedula != "" && textnorm.Digits(r.NationalID) == cedula {
			errs.Set("cedula", "Ya existe un responsable con esta cédula")
		}
		if email != "" && textnorm.Email(r.Email) == email {
			errs.Set("correo", "Ya existe un responsable con este correo")
		}
	}
	return errs
}

// Normalize returns the draft as it should be stored.
func Normalize(d domain.ResponsibleDraft) domain.ResponsibleDraft {
	return domain.ResponsibleDraft{
		Title:      textnorm.Clean(d.Title),
		FirstName:  textnorm.Clean(d.FirstName),
		LastName:   textnorm.Clean(d.LastName),
		Email:      textnorm.Email(d.Email),
		NationalID: textnorm.Digits(d.NationalID),
		JobTitle:   textnorm.Clean(d.JobTitle),
	}
}
