package asignaciones

import (
	"context"
	"errors"
	"time"

	"EPESPO-inventario/internal/domain"
)

// Kind tells assignment sagas from reception sagas.
type Kind string

const (
	KindAssignment Kind = "asignacion"
	KindReception  Kind = "recepcion"
)

type StepStatus string

const (
	StepPending StepStatus = "pendiente"
	StepDone    StepStatus = "registrado"
	StepFailed  StepStatus = "fallido"
)

type SagaStatus string

const (
	SagaPending   SagaStatus = "pendiente"
	SagaCompleted SagaStatus = "completado"
	SagaPartial   SagaStatus = "parcial"
	SagaFailed    SagaStatus = "fallido"
)

// Step is one per-category POST of a multi-category submission. Its id is
// also the Idempotency-Key sent upstream.
type Step struct {
	ID        string          `json:"id"`
	SagaID    string          `json:"-"`
	Position  int             `json:"posicion"`
	Category  domain.Category `json:"categoria"`
	Assets    []domain.ID     `json:"productos"`
	Status    StepStatus      `json:"estado"`
	RecordID  domain.ID       `json:"registro_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	Attempts  int             `json:"intentos"`
	UpdatedAt time.Time       `json:"actualizado"`
}

// Saga tracks one operator submission that spans several categories.
type Saga struct {
	ID            string     `json:"id"`
	Kind          Kind       `json:"tipo"`
	ResponsibleID domain.ID  `json:"responsable_id"`
	DepartmentID  domain.ID  `json:"area_id"`
	Date          string     `json:"fecha"`
	Status        SagaStatus `json:"estado"`
	ActaRequested bool       `json:"generar_acta"`
	CreatedBy     domain.ID  `json:"creado_por,omitempty"`
	CreatedAt     time.Time  `json:"creado"`
	UpdatedAt     time.Time  `json:"actualizado"`
	Steps         []Step     `json:"pasos"`
}

// Remaining lists the steps a retry would run, in order.
func (s *Saga) Remaining() []Step {
	var out []Step
	for _, st := range s.Steps {
		if st.Status != StepDone {
			out = append(out, st)
		}
	}
	return out
}

// DoneIDs returns the created record ids in step order.
func (s *Saga) DoneIDs() []domain.ID {
	var out []domain.ID
	for _, st := range s.Steps {
		if st.Status == StepDone && st.RecordID.Valid() {
			out = append(out, st.RecordID)
		}
	}
	return out
}

// Resolve derives the saga status from its steps.
func (s *Saga) Resolve() SagaStatus {
	done, failed := 0, 0
	for _, st := range s.Steps {
		switch st.Status {
		case StepDone:
			done++
		case StepFailed:
			failed++
		}
	}
	switch {
	case len(s.Steps) > 0 && done == len(s.Steps):
		return SagaCompleted
	case failed == 0:
		return SagaPending
	case done > 0:
		return SagaPartial
	default:
		return SagaFailed
	}
}

var (
	ErrSagaNotFound = errors.New("saga not found")
	ErrSagaExists   = errors.New("saga already exists")
)

// Journal persists saga progress so a partial submission can be inspected
// and retried later.
type Journal interface {
	Create(ctx context.Context, s *Saga) error
	Get(ctx context.Context, id string) (*Saga, error)
	RecordStep(ctx context.Context, st Step) error
	SetStatus(ctx context.Context, sagaID string, status SagaStatus, at time.Time) error
	// ListOpen returns unfinished sagas of kind, newest first.
	ListOpen(ctx context.Context, kind Kind, limit int) ([]Saga, error)
}
