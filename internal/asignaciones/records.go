package asignaciones

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/apierr"
	"EPESPO-inventario/internal/platform/backend"
	"EPESPO-inventario/internal/validation"
)

// Record is the common view of an assignment or a reception.
type Record struct {
	ID            domain.ID           `json:"id"`
	Kind          Kind                `json:"tipo"`
	ResponsibleID domain.ID           `json:"responsable_id"`
	DepartmentID  domain.ID           `json:"area_id"`
	Date          string              `json:"fecha"`
	Category      domain.Category     `json:"categoria"`
	Assets        []domain.Asset      `json:"productos"`
	Active        bool                `json:"activo"`
	VoidReason    string              `json:"motivo_anulacion,omitempty"`
	Responsible   *domain.Responsible `json:"responsable,omitempty"`
}

func fromAssignment(a domain.Assignment) Record {
	return Record{
		ID: a.ID, Kind: KindAssignment,
		ResponsibleID: a.ResponsibleID, DepartmentID: a.DepartmentID,
		Date: a.Date, Category: recordCategory(a.Category, a.Assets), Assets: a.Assets,
		Active: a.Active, VoidReason: a.VoidReason, Responsible: a.Responsible,
	}
}

func fromReception(r domain.Reception) Record {
	return Record{
		ID: r.ID, Kind: KindReception,
		ResponsibleID: r.ResponsibleID, DepartmentID: r.DepartmentID,
		Date: r.Date, Category: recordCategory(r.Category, r.Assets), Assets: r.Assets,
		Active: r.Active, VoidReason: r.VoidReason, Responsible: r.Responsible,
	}
}

// recordCategory falls back to the first asset's category for records that
// predate the categoria column.
func recordCategory(c domain.Category, assets []domain.Asset) domain.Category {
	if c == "" && len(assets) > 0 {
		return assets[0].Category
	}
	return c
}

// Day is the calendar part of the record date.
func (r Record) Day() string { return day(r.Date) }

func day(date string) string {
	date = strings.TrimSpace(date)
	if len(date) >= 10 {
		return date[:10]
	}
	return date
}

func (s *Service) records(ctx context.Context, kind Kind) ([]Record, error) {
	if kind == KindReception {
		list, err := s.up.Receptions(ctx)
		if err != nil {
			return nil, backend.AsAPIError(err)
		}
		out := make([]Record, 0, len(list))
		for _, r := range list {
			out = append(out, fromReception(r))
		}
		return out, nil
	}
	list, err := s.up.Assignments(ctx)
	if err != nil {
		return nil, backend.AsAPIError(err)
	}
	out := make([]Record, 0, len(list))
	for _, a := range list {
		out = append(out, fromAssignment(a))
	}
	return out, nil
}

func findRecord(list []Record, id domain.ID) (Record, error) {
	for _, r := range list {
		if r.ID == id {
			return r, nil
		}
	}
	if len(list) > 0 && list[0].Kind == KindReception {
		return Record{}, apierr.NotFound("Recepción no encontrada")
	}
	return Record{}, apierr.NotFound("Registro no encontrado")
}

func assetIDs(assets []domain.Asset) []domain.ID {
	out := make([]domain.ID, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.ID)
	}
	return out
}

// ===== Edit =====

// Edit is the result of a single-record edit.
type Edit struct {
	Record  Record              `json:"registro"`
	Message string              `json:"mensaje"`
	Custody []domain.CustodyRow `json:"custodia"`
}

const msgVoidedReadOnly = "El registro está anulado y no puede editarse."

// UpdateAssignment edits one assignment. Only assets of the record's category
// are kept; its own custody rows are not conflicts.
func (s *Service) UpdateAssignment(ctx context.Context, id domain.ID, req AssignmentRequest) (Edit, error) {
	release, ok := s.guard.Acquire(string(KindAssignment))
	if !ok {
		return Edit{}, apierr.Conflict(msgBusy)
	}
	defer release()

	list, err := s.records(ctx, KindAssignment)
	if err != nil {
		return Edit{}, err
	}
	cur, err := findRecord(list, id)
	if err != nil {
		return Edit{}, err
	}
	if !cur.Active {
		return Edit{}, apierr.Conflict(msgVoidedReadOnly)
	}

	sel, err := s.checkAssignment(ctx, req.AssignmentDraft, req.Assets, id, cur.Category)
	if err != nil {
		return Edit{}, err
	}
	out, err := s.up.UpdateAssignment(ctx, id, domain.AssignmentPayload{
		ResponsibleID: req.ResponsibleID,
		DepartmentID:  req.DepartmentID,
		Date:          req.Date,
		Category:      cur.Category,
		Assets:        sel.IDs(cur.Category),
	})
	rows := s.refreshSnapshot(ctx)
	if err != nil {
		s.log.WithError(err).WithField("asignacion_id", id).Warn("assignment update rejected")
		return Edit{}, backend.AsAPIError(err)
	}
	return Edit{Record: fromAssignment(out), Message: "Asignación actualizada correctamente", Custody: rows}, nil
}

// UpdateReception edits one reception. The assets it already received count
// as still held by the responsible for the eligibility check.
func (s *Service) UpdateReception(ctx context.Context, id domain.ID, req ReceptionRequest) (Edit, error) {
	release, ok := s.guard.Acquire(string(KindReception))
	if !ok {
		return Edit{}, apierr.Conflict(msgBusy)
	}
	defer release()

	list, err := s.records(ctx, KindReception)
	if err != nil {
		return Edit{}, err
	}
	cur, err := findRecord(list, id)
	if err != nil {
		return Edit{}, err
	}
	if !cur.Active {
		return Edit{}, apierr.Conflict(msgVoidedReadOnly)
	}

	own := make([]domain.CustodyRow, 0, len(cur.Assets))
	for _, a := range cur.Assets {
		own = append(own, domain.CustodyRow{
			AssetID:       a.ID,
			ResponsibleID: cur.ResponsibleID,
			DepartmentID:  cur.DepartmentID,
		})
	}
	sel, err := s.checkReception(ctx, req.ReceptionDraft, req.Assets, own, cur.Category)
	if err != nil {
		return Edit{}, err
	}
	out, err := s.up.UpdateReception(ctx, id, domain.ReceptionPayload{
		ResponsibleID: req.ResponsibleID,
		DepartmentID:  req.DepartmentID,
		Date:          req.Date,
		Category:      cur.Category,
		Assets:        sel.IDs(cur.Category),
	})
	rows := s.refreshSnapshot(ctx)
	if err != nil {
		s.log.WithError(err).WithField("recepcion_id", id).Warn("reception update rejected")
		return Edit{}, backend.AsAPIError(err)
	}
	return Edit{Record: fromReception(out), Message: "Recepción actualizada correctamente", Custody: rows}, nil
}

// ===== Void =====

type Scope string

const (
	ScopeRecord Scope = "registro"
	ScopeGroup  Scope = "grupo"
)

const maxVoidReason = 500

type VoidResult struct {
	ID    domain.ID `json:"id"`
	OK    bool      `json:"ok"`
	Error string    `json:"error,omitempty"`
}

type VoidOutcome struct {
	Results []VoidResult        `json:"resultados"`
	Message string              `json:"mensaje"`
	Custody []domain.CustodyRow `json:"custodia"`
}

// ValidateVoidReason accepts an empty reason; a given one is trimmed and
// limited to 500 characters.
func ValidateVoidReason(reason string) validation.Errors {
	errs := validation.Errors{}
	if utf8.RuneCountInString(strings.TrimSpace(reason)) > maxVoidReason {
		errs.Set("motivo_anulacion", "El motivo no debe superar 500 caracteres.")
	}
	return errs
}

// Void soft-deactivates a record, or with ScopeGroup every active record
// sharing its responsible, area and date. Each row is reported separately.
func (s *Service) Void(ctx context.Context, kind Kind, id domain.ID, reason string, scope Scope) (VoidOutcome, error) {
	if errs := ValidateVoidReason(reason); !errs.OK() {
		return VoidOutcome{}, apierr.Validation(errs)
	}
	reason = strings.TrimSpace(reason)

	release, ok := s.guard.Acquire(string(kind))
	if !ok {
		return VoidOutcome{}, apierr.Conflict(msgBusy)
	}
	defer release()

	list, err := s.records(ctx, kind)
	if err != nil {
		return VoidOutcome{}, err
	}
	target, err := findRecord(list, id)
	if err != nil {
		return VoidOutcome{}, err
	}
	if !target.Active {
		return VoidOutcome{}, apierr.Conflict("El registro ya está anulado.")
	}

	targets := []Record{target}
	if scope == ScopeGroup {
		targets = siblings(list, target)
	}

	ctx = context.WithoutCancel(ctx)
	out := VoidOutcome{Results: make([]VoidResult, 0, len(targets))}
	voided := 0
	var firstErr error
	for _, r := range targets {
		err := s.voidOne(ctx, kind, r.ID, reason)
		res := VoidResult{ID: r.ID, OK: err == nil}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			res.Error = backend.Message(err)
			s.log.WithError(err).WithFields(logrus.Fields{"tipo": kind, "id": r.ID}).Warn("void rejected")
		} else {
			voided++
		}
		out.Results = append(out.Results, res)
	}
	out.Custody = s.refreshSnapshot(ctx)

	if scope != ScopeGroup {
		if firstErr != nil {
			return VoidOutcome{}, backend.AsAPIError(firstErr)
		}
		out.Message = voidedMessage(kind)
		return out, nil
	}
	out.Message = fmt.Sprintf("Se anularon %d de %d registros.", voided, len(targets))
	return out, nil
}

func (s *Service) voidOne(ctx context.Context, kind Kind, id domain.ID, reason string) error {
	if kind == KindReception {
		return s.up.VoidReception(ctx, id, reason)
	}
	return s.up.VoidAssignment(ctx, id, reason)
}

func voidedMessage(kind Kind) string {
	if kind == KindReception {
		return "Recepción anulada correctamente"
	}
	return "Asignación anulada correctamente"
}

// siblings returns the active records of target's group, in list order.
func siblings(list []Record, target Record) []Record {
	var out []Record
	for _, r := range list {
		if r.Active && r.ResponsibleID == target.ResponsibleID &&
			r.DepartmentID == target.DepartmentID && r.Day() == target.Day() {
			out = append(out, r)
		}
	}
	return out
}
