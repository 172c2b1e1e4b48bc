package responsables

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/apierr"
	"EPESPO-inventario/internal/platform/backend"
	"EPESPO-inventario/internal/platform/refcache"
	"EPESPO-inventario/internal/textnorm"
)

// Upstream is the slice of the backend client this package uses.
type Upstream interface {
	Responsibles(ctx context.Context) ([]domain.Responsible, error)
	CreateResponsible(ctx context.Context, d domain.ResponsibleDraft) (domain.Responsible, error)
	UpdateResponsible(ctx context.Context, id domain.ID, d domain.ResponsibleDraft) (domain.Responsible, error)
	DeleteResponsible(ctx context.Context, id domain.ID) error
}

type Service struct {
	up    Upstream
	cache *refcache.Cache
	log   logrus.FieldLogger
}

func NewService(up Upstream, cache *refcache.Cache, log logrus.FieldLogger) *Service {
	return &Service{up: up, cache: cache, log: log}
}

func (s *Service) all(ctx context.Context) ([]domain.Responsible, error) {
	list, err := refcache.Fetch(ctx, s.cache, refcache.KeyResponsibles, s.up.Responsibles)
	if err != nil {
		return nil, backend.AsAPIError(err)
	}
	return list, nil
}

// List returns responsibles sorted by full name, optionally filtered by a
// free-text query over name, cédula, email and job title.
func (s *Service) List(ctx context.Context, query string) ([]domain.Responsible, error) {
	list, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	q := textnorm.Key(query)
	out := make([]domain.Responsible, 0, len(list))
	for _, r := range list {
		if q == "" || matches(r, q) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return textnorm.Key(out[i].FullName()) < textnorm.Key(out[j].FullName())
	})
	return out, nil
}

func matches(r domain.Responsible, q string) bool {
	for _, f := range []string{r.FullName(), r.NationalID, r.Email, r.JobTitle} {
		if strings.Contains(textnorm.Key(f), q) {
			return true
		}
	}
	return false
}

// Get finds one responsible in the cached list.
func (s *Service) Get(ctx context.Context, id domain.ID) (domain.Responsible, error) {
	list, err := s.all(ctx)
	if err != nil {
		return domain.Responsible{}, err
	}
	for _, r := range list {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Responsible{}, apierr.NotFound("Responsable no encontrado")
}

func (s *Service) Create(ctx context.Context, d domain.ResponsibleDraft) (domain.Responsible, error) {
	return s.save(ctx, 0, d)
}

func (s *Service) Update(ctx context.Context, id domain.ID, d domain.ResponsibleDraft) (domain.Responsible, error) {
	if !id.Valid() {
		return domain.Responsible{}, apierr.Invalid("id inválido")
	}
	return s.save(ctx, id, d)
}

func (s *Service) save(ctx context.Context, id domain.ID, d domain.ResponsibleDraft) (domain.Responsible, error) {
	d = Normalize(d)
	errs := Validate(d)
	if errs.OK() {
		// uniqueness needs a fresh list; stale data would let a duplicate through
		s.cache.Invalidate(refcache.KeyResponsibles)
		all, err := s.all(ctx)
		if err != nil {
			return domain.Responsible{}, err
		}
		errs = ValidateUnique(d, all, id)
	}
	if !errs.OK() {
		return domain.Responsible{}, apierr.Validation(errs)
	}

	var (
		out domain.Responsible
		err error
	)
	if id.Valid() {
		out, err = s.up.UpdateResponsible(ctx, id, d)
	} else {
		out, err = s.up.CreateResponsible(ctx, d)
	}
	s.cache.Invalidate(refcache.KeyResponsibles)
	if err != nil {
		s.log.WithError(err).WithField("responsable_id", id).Warn("save responsible rejected")
		return domain.Responsible{}, backend.AsAPIError(err)
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id domain.ID) error {
	if !id.Valid() {
		return apierr.Invalid("id inválido")
	}
	err := s.up.DeleteResponsible(ctx, id)
	s.cache.Invalidate(refcache.KeyResponsibles, refcache.KeyDepartments)
	if err != nil {
		return backend.AsAPIError(err)
	}
	return nil
}
