package domain

type ActaType string

const (
	ActaAssignment ActaType = "Asignación"
	ActaReception  ActaType = "Recepción"
)

// Acta is the custody certificate the backend renders for an assignment or
// reception batch. The gateway only lists it and attaches the signed PDF.
type Acta struct {
	ID          ID           `json:"id"`
	Code        string       `json:"codigo"`
	CreatedOn   string       `json:"fecha_creacion"`
	PDFPath     string       `json:"archivo_pdf_path,omitempty"`
	Assignments []Assignment `json:"asignaciones,omitempty"`
	Receptions  []Reception  `json:"recepciones,omitempty"`
	Responsible *Responsible `json:"responsable,omitempty"`
}

// Type is Recepción only when the acta has receptions and no assignments.
func (a Acta) Type() ActaType {
	if len(a.Assignments) == 0 && len(a.Receptions) > 0 {
		return ActaReception
	}
	return ActaAssignment
}

// Voided reports whether any linked record was voided.
func (a Acta) Voided() bool {
	for _, x := range a.Assignments {
		if !x.Active {
			return true
		}
	}
	for _, x := range a.Receptions {
		if !x.Active {
			return true
		}
	}
	return false
}

// ResponsibleName prefers the first assignment's responsible, then the
// acta's own.
func (a Acta) ResponsibleName() string {
	if len(a.Assignments) > 0 && a.Assignments[0].Responsible != nil {
		return a.Assignments[0].Responsible.FullName()
	}
	if a.Responsible != nil {
		return a.Responsible.FullName()
	}
	return ""
}

// Assets lists the assets covered by the acta.
func (a Acta) Assets() []Asset {
	var out []Asset
	if len(a.Assignments) > 0 {
		for _, x := range a.Assignments {
			out = append(out, x.Assets...)
		}
		return out
	}
	for _, x := range a.Receptions {
		out = append(out, x.Assets...)
	}
	return out
}
