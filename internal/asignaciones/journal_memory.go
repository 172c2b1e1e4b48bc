package asignaciones

import (
	"context"
	"sort"
	"sync"
	"time"

	"EPESPO-inventario/internal/domain"
)

// MemoryJournal keeps sagas for the life of the process.
type MemoryJournal struct {
	mu    sync.RWMutex
	sagas map[string]*Saga
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{sagas: map[string]*Saga{}}
}

func (j *MemoryJournal) Create(_ context.Context, s *Saga) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.sagas[s.ID]; ok {
		return ErrSagaExists
	}
	j.sagas[s.ID] = clone(s)
	return nil
}

func (j *MemoryJournal) Get(_ context.Context, id string) (*Saga, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	s, ok := j.sagas[id]
	if !ok {
		return nil, ErrSagaNotFound
	}
	return clone(s), nil
}

func (j *MemoryJournal) RecordStep(_ context.Context, st Step) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	s, ok := j.sagas[st.SagaID]
	if !ok {
		return ErrSagaNotFound
	}
	for i := range s.Steps {
		if s.Steps[i].ID == st.ID {
			st.Assets = append([]domain.ID(nil), st.Assets...)
			s.Steps[i] = st
			s.UpdatedAt = st.UpdatedAt
			return nil
		}
	}
	return ErrSagaNotFound
}

func (j *MemoryJournal) SetStatus(_ context.Context, sagaID string, status SagaStatus, at time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	s, ok := j.sagas[sagaID]
	if !ok {
		return ErrSagaNotFound
	}
	s.Status = status
	s.UpdatedAt = at
	return nil
}

func (j *MemoryJournal) ListOpen(_ context.Context, kind Kind, limit int) ([]Saga, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	var out []Saga
	for _, s := range j.sagas {
		if s.Kind == kind && s.Status != SagaCompleted {
			out = append(out, *clone(s))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func clone(s *Saga) *Saga {
	c := *s
	c.Steps = make([]Step, len(s.Steps))
	for i, st := range s.Steps {
		st.Assets = append([]domain.ID(nil), st.Assets...)
		c.Steps[i] = st
	}
	return &c
}
