package bienes

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"EPESPO-inventario/internal/custody"
	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/apierr"
	"EPESPO-inventario/internal/platform/backend"
	"EPESPO-inventario/internal/platform/clock"
	"EPESPO-inventario/internal/platform/refcache"
	"EPESPO-inventario/internal/textnorm"
)

type Upstream interface {
	Assets(ctx context.Context) ([]domain.Asset, error)
	CreateAsset(ctx context.Context, a domain.Asset) (domain.Asset, error)
	UpdateAsset(ctx context.Context, a domain.Asset) (domain.Asset, error)
	CurrentCustody(ctx context.Context) ([]domain.CustodyRow, error)
}

type Service struct {
	up    Upstream
	cache *refcache.Cache
	clock clock.Clock
	log   logrus.FieldLogger
}

func NewService(up Upstream, cache *refcache.Cache, clk clock.Clock, log logrus.FieldLogger) *Service {
	return &Service{up: up, cache: cache, clock: clk, log: log}
}

// ===== Listing =====

type Filter struct {
	Text     string
	Category domain.Category
	State    domain.AssetState
}

func (s *Service) assets(ctx context.Context) ([]domain.Asset, error) {
	list, err := refcache.Fetch(ctx, s.cache, refcache.KeyAssets, s.up.Assets)
	if err != nil {
		return nil, backend.AsAPIError(err)
	}
	return list, nil
}

// freshAssets skips the cache; used right before a decision that depends on
// the asset list.
func (s *Service) freshAssets(ctx context.Context) ([]domain.Asset, error) {
	s.cache.Invalidate(refcache.KeyAssets)
	return s.assets(ctx)
}

func (s *Service) snapshot(ctx context.Context) (custody.Lookup, error) {
	rows, err := s.up.CurrentCustody(ctx)
	if err != nil {
		return nil, backend.AsAPIError(err)
	}
	return custody.BuildLookup(rows), nil
}

// List filters by text over code, name and category, by category and by
// state. Active assets come first, then by code.
func (s *Service) List(ctx context.Context, f Filter) ([]domain.Asset, error) {
	list, err := s.assets(ctx)
	if err != nil {
		return nil, err
	}
	q := textnorm.Key(f.Text)
	out := make([]domain.Asset, 0, len(list))
	for _, a := range list {
		if f.Category != "" && a.Category != f.Category {
			continue
		}
		if f.State != "" && stateOf(a) != f.State {
			continue
		}
		if q != "" && !strings.Contains(textnorm.Key(a.Code+" "+a.Name+" "+string(a.Category)), q) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Active() != out[j].Active() {
			return out[i].Active()
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func stateOf(a domain.Asset) domain.AssetState {
	if a.Active() {
		return domain.AssetActive
	}
	return domain.AssetInactive
}

func (s *Service) Get(ctx context.Context, id domain.ID) (domain.Asset, error) {
	list, err := s.assets(ctx)
	if err != nil {
		return domain.Asset{}, err
	}
	return find(list, id)
}

func find(list []domain.Asset, id domain.ID) (domain.Asset, error) {
	for _, a := range list {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Asset{}, apierr.NotFound("Bien no encontrado")
}

// ===== Custody views =====

// Available is the selection step of a new assignment: active assets nobody
// holds, grouped by category. The snapshot is always fetched fresh.
func (s *Service) Available(ctx context.Context) (domain.Selection, error) {
	lookup, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.freshAssets(ctx)
	if err != nil {
		return nil, err
	}
	var eligible []domain.Asset
	for _, a := range list {
		if custody.EligibleForAssignment(a, lookup) {
			eligible = append(eligible, a)
		}
	}
	return domain.GroupByCategory(eligible), nil
}

// Holdings is what a responsible currently holds, for the reception form.
type Holdings struct {
	Grouped domain.Selection `json:"agrupados"`
	// SingleDepartment is set when every held asset sits in the same area.
	SingleDepartment domain.ID `json:"areaUnica,omitempty"`
}

func (s *Service) Holdings(ctx context.Context, responsibleID domain.ID) (Holdings, error) {
	if !responsibleID.Valid() {
		return Holdings{Grouped: domain.Selection{}}, nil
	}
	lookup, err := s.snapshot(ctx)
	if err != nil {
		return Holdings{}, err
	}
	list, err := s.freshAssets(ctx)
	if err != nil {
		return Holdings{}, err
	}
	byID := make(map[domain.ID]domain.Asset, len(list))
	for _, a := range list {
		byID[a.ID] = a
	}

	var held []domain.Asset
	areas := map[domain.ID]struct{}{}
	for _, row := range lookup.HeldBy(responsibleID) {
		a, ok := byID[row.AssetID]
		if !ok {
			a = domain.Asset{ID: row.AssetID}
		}
		held = append(held, a)
		areas[row.DepartmentID] = struct{}{}
	}
	sort.SliceStable(held, func(i, j int) bool { return held[i].ID < held[j].ID })

	h := Holdings{Grouped: domain.GroupByCategory(held)}
	if len(areas) == 1 {
		for id := range areas {
			h.SingleDepartment = id
		}
	}
	return h, nil
}

// ===== Mutations =====

// Create assigns the next sequential code, or reuses the legacy code when
// one is given, and posts the asset as Active.
func (s *Service) Create(ctx context.Context, d domain.AssetDraft) (domain.Asset, error) {
	d = normalize(d)
	all, err := s.freshAssets(ctx)
	if err != nil {
		return domain.Asset{}, err
	}
	if errs := ValidateAsset(d, all, 0); !errs.OK() {
		return domain.Asset{}, apierr.Validation(errs)
	}

	code := d.LegacyCode
	if code == "" {
		code, err = NextCode(d.Category, all, s.clock.Now())
		if err != nil {
			return domain.Asset{}, apierr.Invalid(err.Error())
		}
	}

	a := fromDraft(d)
	a.Code = code
	a.State = domain.AssetActive

	out, err := s.up.CreateAsset(ctx, a)
	s.cache.Invalidate(refcache.KeyAssets)
	if err != nil {
		s.log.WithError(err).WithField("codigo", code).Warn("create asset rejected")
		return domain.Asset{}, backend.AsAPIError(err)
	}
	return out, nil
}

// Update edits an active asset. The code never changes.
func (s *Service) Update(ctx context.Context, id domain.ID, d domain.AssetDraft) (domain.Asset, error) {
	d = normalize(d)
	all, err := s.freshAssets(ctx)
	if err != nil {
		return domain.Asset{}, err
	}
	cur, err := find(all, id)
	if err != nil {
		return domain.Asset{}, err
	}
	if !cur.Active() {
		return domain.Asset{}, apierr.Conflict("El bien está dado de baja y no puede editarse.")
	}
	if errs := ValidateAsset(d, all, id); !errs.OK() {
		return domain.Asset{}, apierr.Validation(errs)
	}

	a := fromDraft(d)
	a.ID = id
	a.Code = cur.Code
	a.State = cur.State

	out, err := s.up.UpdateAsset(ctx, a)
	s.cache.Invalidate(refcache.KeyAssets)
	if err != nil {
		return domain.Asset{}, backend.AsAPIError(err)
	}
	return out, nil
}

// Deactivate marks an asset Inactive. It refuses when the asset was assigned
// since the operator opened the form.
func (s *Service) Deactivate(ctx context.Context, id domain.ID, reason string) (domain.Asset, error) {
	if msg := ValidateDeactivationReason(reason); msg != "" {
		return domain.Asset{}, apierr.Validation(map[string]string{"motivo_baja": msg})
	}
	all, err := s.freshAssets(ctx)
	if err != nil {
		return domain.Asset{}, err
	}
	a, err := find(all, id)
	if err != nil {
		return domain.Asset{}, err
	}
	if !a.Active() {
		return domain.Asset{}, apierr.Conflict("El bien ya está dado de baja.")
	}

	lookup, err := s.snapshot(ctx)
	if err != nil {
		return domain.Asset{}, err
	}
	if !custody.CanAssign(lookup, id) {
		return domain.Asset{}, apierr.Conflict("No puedes dar de baja: el bien se asignó mientras estabas aquí.")
	}

	a.State = domain.AssetInactive
	a.DisposalReason = strings.TrimSpace(reason)
	out, err := s.up.UpdateAsset(ctx, a)
	s.cache.Invalidate(refcache.KeyAssets)
	if err != nil {
		return domain.Asset{}, backend.AsAPIError(err)
	}
	s.log.WithFields(logrus.Fields{"producto_id": id, "codigo": a.Code}).Info("asset deactivated")
	return out, nil
}

func normalize(d domain.AssetDraft) domain.AssetDraft {
	d.Name = textnorm.Clean(d.Name)
	d.LegacyCode = strings.TrimSpace(d.LegacyCode)
	d.Serial = strings.TrimSpace(d.Serial)
	d.Brand = textnorm.Clean(d.Brand)
	d.Model = textnorm.Clean(d.Model)
	d.Description = strings.TrimSpace(d.Description)
	return d
}

func fromDraft(d domain.AssetDraft) domain.Asset {
	return domain.Asset{
		LegacyCode:  d.LegacyCode,
		Category:    d.Category,
		Name:        d.Name,
		Description: d.Description,
		Brand:       d.Brand,
		Model:       d.Model,
		Serial:      d.Serial,
		Dimensions:  d.Dimensions,
		Color:       d.Color,
		EntryDate:   d.EntryDate,
		LocationID:  d.LocationID,
		Donated:     d.Donated,
	}
}
