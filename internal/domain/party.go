package domain

import "strings"

// Responsible is a staff member who can hold custody of assets.
type Responsible struct {
	ID         ID     `json:"id"`
	Title      string `json:"titulo"`
	FirstName  string `json:"nombre"`
	LastName   string `json:"apellido"`
	Email      string `json:"correo"`
	NationalID string `json:"cedula"`
	JobTitle   string `json:"cargo"`
}

// FullName is "nombre apellido", or "Sin nombre" when both are empty.
func (r *Responsible) FullName() string {
	if r == nil {
		return "Sin nombre"
	}
	n := strings.TrimSpace(r.FirstName + " " + r.LastName)
	if n == "" {
		return "Sin nombre"
	}
	return n
}

type ResponsibleDraft struct {
	Title      string `json:"titulo"`
	FirstName  string `json:"nombre"`
	LastName   string `json:"apellido"`
	Email      string `json:"correo"`
	NationalID string `json:"cedula"`
	JobTitle   string `json:"cargo"`
}

// Department is an organizational area ("departamento" / "área").
type Department struct {
	ID            ID           `json:"id"`
	Name          string       `json:"nombre"`
	Location      string       `json:"ubicacion"`
	ResponsibleID ID           `json:"responsable_id"`
	Responsible   *Responsible `json:"responsable,omitempty"`
}

type DepartmentDraft struct {
	Name          string `json:"nombre"`
	Location      string `json:"ubicacion"`
	ResponsibleID ID     `json:"responsable_id"`
}

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleReader Role = "lector"
)

type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"nombre"`
	Email string `json:"correo"`
	Role  Role   `json:"rol"`
}

type UserDraft struct {
	Name     string `json:"nombre"`
	Email    string `json:"correo"`
	Password string `json:"contrasena,omitempty"`
	Role     Role   `json:"rol"`
}
