package domain

// CustodyRow states that an asset is presently held by a responsible party
// through an assignment. Rows are derived upstream and only ever fetched.
type CustodyRow struct {
	AssetID       ID           `json:"producto_id"`
	ResponsibleID ID           `json:"responsable_id"`
	DepartmentID  ID           `json:"area_id"`
	AssignmentID  ID           `json:"asignacion_id"`
	Responsible   *Responsible `json:"responsable,omitempty"`
}

// Assignment grants custody of assets of one category to a responsible party.
type Assignment struct {
	ID            ID           `json:"id"`
	ResponsibleID ID           `json:"responsable_id"`
	DepartmentID  ID           `json:"area_id"`
	Date          string       `json:"fecha_asignacion"`
	Category      Category     `json:"categoria"`
	Assets        []Asset      `json:"productos"`
	Active        bool         `json:"activo"`
	VoidReason    string       `json:"motivo_anulacion,omitempty"`
	Responsible   *Responsible `json:"responsable,omitempty"`
}

// Reception records the hand-back of assets of one category.
type Reception struct {
	ID            ID           `json:"id"`
	ResponsibleID ID           `json:"responsable_id"`
	DepartmentID  ID           `json:"area_id"`
	Date          string       `json:"fecha_devolucion"`
	Category      Category     `json:"categoria"`
	Assets        []Asset      `json:"productos"`
	Active        bool         `json:"activo"`
	VoidReason    string       `json:"motivo_anulacion,omitempty"`
	Responsible   *Responsible `json:"responsable,omitempty"`
}

// AssignmentDraft is the header of an assignment form in progress.
type AssignmentDraft struct {
	ResponsibleID ID     `json:"responsable_id"`
	Date          string `json:"fecha_asignacion"`
	DepartmentID  ID     `json:"area_id"`
}

// ReceptionDraft is the header of a reception form in progress.
type ReceptionDraft struct {
	ResponsibleID ID     `json:"responsable_id"`
	Date          string `json:"fecha_devolucion"`
	DepartmentID  ID     `json:"area_id"`
}

// AssignmentPayload is the body of POST/PUT /asignaciones: one category per call.
type AssignmentPayload struct {
	ResponsibleID ID       `json:"responsable_id"`
	DepartmentID  ID       `json:"area_id"`
	Date          string   `json:"fecha_asignacion"`
	Category      Category `json:"categoria"`
	Assets        []ID     `json:"productos"`
}

// ReceptionPayload is the body of POST/PUT /recepciones.
type ReceptionPayload struct {
	ResponsibleID ID       `json:"responsable_id"`
	DepartmentID  ID       `json:"area_id"`
	Date          string   `json:"fecha_devolucion"`
	Category      Category `json:"categoria"`
	Assets        []ID     `json:"productos"`
}

// VoidPayload soft-deactivates an assignment or reception.
type VoidPayload struct {
	Active bool   `json:"activo"`
	Reason string `json:"motivo_anulacion,omitempty"`
}
