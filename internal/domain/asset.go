package domain

type AssetState string

const (
	AssetActive   AssetState = "Activo"
	AssetInactive AssetState = "Inactivo"
)

// Asset is a tracked physical good ("bien" / "producto").
type Asset struct {
	ID             ID         `json:"id"`
	Code           string     `json:"codigo"`
	LegacyCode     string     `json:"codigo_anterior,omitempty"`
	Category       Category   `json:"categoria"`
	Name           string     `json:"nombre"`
	Description    string     `json:"descripcion,omitempty"`
	Brand          string     `json:"marca,omitempty"`
	Model          string     `json:"modelo,omitempty"`
	Serial         string     `json:"numero_serie,omitempty"`
	Dimensions     string     `json:"dimensiones,omitempty"`
	Color          string     `json:"color,omitempty"`
	EntryDate      string     `json:"fecha_ingreso,omitempty"`
	LocationID     ID         `json:"ubicacion_id,omitempty"`
	State          AssetState `json:"estado"`
	Donated        bool       `json:"es_donado"`
	DisposalReason string     `json:"motivo_baja,omitempty"`
}

func (a Asset) Active() bool { return a.State != AssetInactive }

// AssetDraft is the create/edit form for an asset.
type AssetDraft struct {
	LegacyCode  string   `json:"codigo_anterior"`
	Category    Category `json:"categoria"`
	Name        string   `json:"nombre"`
	Description string   `json:"descripcion"`
	Brand       string   `json:"marca"`
	Model       string   `json:"modelo"`
	Serial      string   `json:"numero_serie"`
	Dimensions  string   `json:"dimensiones"`
	Color       string   `json:"color"`
	EntryDate   string   `json:"fecha_ingreso"`
	LocationID  ID       `json:"ubicacion_id"`
	Donated     bool     `json:"es_donado"`
}
