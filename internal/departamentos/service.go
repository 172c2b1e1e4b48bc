package departamentos

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/apierr"
	"EPESPO-inventario/internal/platform/backend"
	"EPESPO-inventario/internal/platform/refcache"
	"EPESPO-inventario/internal/textnorm"
)

type Upstream interface {
	Departments(ctx context.Context) ([]domain.Department, error)
	CreateDepartment(ctx context.Context, d domain.DepartmentDraft) (domain.Department, error)
	UpdateDepartment(ctx context.Context, id domain.ID, d domain.DepartmentDraft) (domain.Department, error)
	DeleteDepartment(ctx context.Context, id domain.ID) error
	Responsibles(ctx context.Context) ([]domain.Responsible, error)
}

type Service struct {
	up      Upstream
	cache   *refcache.Cache
	allowed []string
	log     logrus.FieldLogger
}

// NewService takes the configured department names; an empty list falls
// back to DefaultAllowedNames.
func NewService(up Upstream, cache *refcache.Cache, allowed []string, log logrus.FieldLogger) *Service {
	if len(allowed) == 0 {
		allowed = DefaultAllowedNames
	}
	return &Service{up: up, cache: cache, allowed: allowed, log: log}
}

func (s *Service) AllowedNames() []string {
	return append([]string(nil), s.allowed...)
}

func (s *Service) all(ctx context.Context) ([]domain.Department, error) {
	list, err := refcache.Fetch(ctx, s.cache, refcache.KeyDepartments, s.up.Departments)
	if err != nil {
		return nil, backend.AsAPIError(err)
	}
	return list, nil
}

// List returns departments ordered by name then location, each with its
// responsible filled in when the backend did not embed it.
func (s *Service) List(ctx context.Context) ([]domain.Department, error) {
	list, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	people, err := refcache.Fetch(ctx, s.cache, refcache.KeyResponsibles, s.up.Responsibles)
	if err != nil {
		return nil, backend.AsAPIError(err)
	}
	byID := make(map[domain.ID]domain.Responsible, len(people))
	for _, p := range people {
		byID[p.ID] = p
	}

	out := make([]domain.Department, len(list))
	for i, d := range list {
		if d.Responsible == nil {
			if p, ok := byID[d.ResponsibleID]; ok {
				d.Responsible = &p
			}
		}
		out[i] = d
	}
	sort.SliceStable(out, func(i, j int) bool {
		ni, nj := textnorm.Key(out[i].Name), textnorm.Key(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return textnorm.Key(out[i].Location) < textnorm.Key(out[j].Location)
	})
	return out, nil
}

func (s *Service) Create(ctx context.Context, d domain.DepartmentDraft) (domain.Department, error) {
	return s.save(ctx, 0, d)
}

func (s *Service) Update(ctx context.Context, id domain.ID, d domain.DepartmentDraft) (domain.Department, error) {
	if !id.Valid() {
		return domain.Department{}, apierr.Invalid("id inválido")
	}
	return s.save(ctx, id, d)
}

func (s *Service) save(ctx context.Context, id domain.ID, d domain.DepartmentDraft) (domain.Department, error) {
	d.Name = textnorm.Clean(d.Name)
	d.Location = textnorm.Clean(d.Location)

	s.cache.Invalidate(refcache.KeyDepartments)
	all, err := s.all(ctx)
	if err != nil {
		return domain.Department{}, err
	}
	if errs := Validate(d, all, id, s.allowed); !errs.OK() {
		return domain.Department{}, apierr.Validation(errs)
	}

	var out domain.Department
	if id.Valid() {
		out, err = s.up.UpdateDepartment(ctx, id, d)
	} else {
		out, err = s.up.CreateDepartment(ctx, d)
	}
	s.cache.Invalidate(refcache.KeyDepartments)
	if err != nil {
		s.log.WithError(err).WithField("area_id", id).Warn("save department rejected")
		return domain.Department{}, backend.AsAPIError(err)
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id domain.ID) error {
	if !id.Valid() {
		return apierr.Invalid("id inválido")
	}
	err := s.up.DeleteDepartment(ctx, id)
	s.cache.Invalidate(refcache.KeyDepartments)
	if err != nil {
		return backend.AsAPIError(err)
	}
	return nil
}
