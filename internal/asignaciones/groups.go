package asignaciones

import (
	"context"
	"sort"
	"strings"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/refcache"
	"EPESPO-inventario/internal/textnorm"
)

// Group is one table row: the records of a responsible, area and date that
// share the same active flag.
type Group struct {
	ResponsibleID   domain.ID         `json:"responsable_id"`
	ResponsibleName string            `json:"responsable"`
	DepartmentID    domain.ID         `json:"area_id"`
	Date            string            `json:"fecha"`
	Active          bool              `json:"activo"`
	Categories      []domain.Category `json:"categorias"`
	AssetCount      int               `json:"total_bienes"`
	Records         []Record          `json:"registros"`
}

type GroupFilter struct {
	Text          string
	Category      domain.Category
	ResponsibleID domain.ID
}

type groupKey struct {
	responsible domain.ID
	department  domain.ID
	day         string
	active      bool
}

// ListGroups filters the records of kind and groups them. Voided groups go
// last; otherwise upstream order is kept.
func (s *Service) ListGroups(ctx context.Context, kind Kind, f GroupFilter) ([]Group, error) {
	list, err := s.records(ctx, kind)
	if err != nil {
		return nil, err
	}
	names := s.responsibleNames(ctx)
	for i := range list {
		if list[i].Responsible == nil {
			if r, ok := names[list[i].ResponsibleID]; ok {
				list[i].Responsible = &r
			}
		}
	}
	return group(filterRecords(list, f)), nil
}

// responsibleNames backs records that arrive without an embedded
// responsible. A failed lookup only costs the names.
func (s *Service) responsibleNames(ctx context.Context) map[domain.ID]domain.Responsible {
	list, err := refcache.Fetch(ctx, s.cache, refcache.KeyResponsibles, s.up.Responsibles)
	if err != nil {
		s.log.WithError(err).Debug("responsible names unavailable")
		return nil
	}
	out := make(map[domain.ID]domain.Responsible, len(list))
	for _, r := range list {
		out[r.ID] = r
	}
	return out
}

func filterRecords(list []Record, f GroupFilter) []Record {
	q := textnorm.Key(f.Text)
	out := make([]Record, 0, len(list))
	for _, r := range list {
		if f.ResponsibleID.Valid() && r.ResponsibleID != f.ResponsibleID {
			continue
		}
		if f.Category != "" && r.Category != f.Category {
			continue
		}
		if q != "" && !matches(r, q) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matches(r Record, q string) bool {
	if strings.Contains(textnorm.Key(r.Responsible.FullName()), q) {
		return true
	}
	for _, a := range r.Assets {
		if strings.Contains(textnorm.Key(a.Name), q) || strings.Contains(textnorm.Key(a.Code), q) {
			return true
		}
	}
	return false
}

func group(list []Record) []Group {
	index := map[groupKey]int{}
	var out []Group
	for _, r := range list {
		k := groupKey{r.ResponsibleID, r.DepartmentID, r.Day(), r.Active}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Group{
				ResponsibleID:   r.ResponsibleID,
				ResponsibleName: r.Responsible.FullName(),
				DepartmentID:    r.DepartmentID,
				Date:            r.Day(),
				Active:          r.Active,
			})
		}
		g := &out[i]
		g.Records = append(g.Records, r)
		g.AssetCount += len(r.Assets)
		if r.Category != "" && !hasCategory(g.Categories, r.Category) {
			g.Categories = append(g.Categories, r.Category)
		}
	}
	for i := range out {
		domain.SortCategories(out[i].Categories)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Active && !out[j].Active })
	return out
}

func hasCategory(cats []domain.Category, c domain.Category) bool {
	for _, x := range cats {
		if x == c {
			return true
		}
	}
	return false
}
