package usuarios

import (
	"context"

	"github.com/sirupsen/logrus"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/apierr"
	"EPESPO-inventario/internal/platform/backend"
	"EPESPO-inventario/internal/platform/refcache"
	"EPESPO-inventario/internal/textnorm"
)

type Upstream interface {
	Users(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, d domain.UserDraft) (domain.User, error)
	UpdateUser(ctx context.Context, id domain.ID, d domain.UserDraft) (domain.User, error)
}

type Service struct {
	up    Upstream
	cache *refcache.Cache
	log   logrus.FieldLogger
}

func NewService(up Upstream, cache *refcache.Cache, log logrus.FieldLogger) *Service {
	return &Service{up: up, cache: cache, log: log}
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	list, err := refcache.Fetch(ctx, s.cache, refcache.KeyUsers, s.up.Users)
	if err != nil {
		return nil, backend.AsAPIError(err)
	}
	return list, nil
}

func (s *Service) Create(ctx context.Context, d domain.UserDraft) (domain.User, error) {
	return s.save(ctx, 0, d)
}

// Update leaves the password untouched when the draft's is empty.
func (s *Service) Update(ctx context.Context, id domain.ID, d domain.UserDraft) (domain.User, error) {
	if !id.Valid() {
		return domain.User{}, apierr.Invalid("id inválido")
	}
	return s.save(ctx, id, d)
}

func (s *Service) save(ctx context.Context, id domain.ID, d domain.UserDraft) (domain.User, error) {
	d.Name = textnorm.Clean(d.Name)
	d.Email = textnorm.Email(d.Email)
	if d.Role != "" && d.Role != domain.RoleAdmin && d.Role != domain.RoleReader {
		return domain.User{}, apierr.Validation(map[string]string{"rol": "Debe seleccionar un rol"})
	}

	s.cache.Invalidate(refcache.KeyUsers)
	all, err := s.List(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if errs := Validate(d, all, id); !errs.OK() {
		return domain.User{}, apierr.Validation(errs)
	}

	var out domain.User
	if id.Valid() {
		out, err = s.up.UpdateUser(ctx, id, d)
	} else {
		out, err = s.up.CreateUser(ctx, d)
	}
	s.cache.Invalidate(refcache.KeyUsers)
	if err != nil {
		s.log.WithError(err).WithField("usuario_id", id).Warn("save user rejected")
		return domain.User{}, backend.AsAPIError(err)
	}
	return out, nil
}
