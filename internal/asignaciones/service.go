// Package asignaciones runs the assignment and reception workflow: the
// per-category submission saga, edits, voids and the grouped listings.
package asignaciones

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"EPESPO-inventario/internal/custody"
	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/apierr"
	"EPESPO-inventario/internal/platform/backend"
	"EPESPO-inventario/internal/platform/clock"
	"EPESPO-inventario/internal/platform/inflight"
	"EPESPO-inventario/internal/platform/refcache"
	"EPESPO-inventario/internal/validation"
)

type Upstream interface {
	Assets(ctx context.Context) ([]domain.Asset, error)
	Responsibles(ctx context.Context) ([]domain.Responsible, error)
	CurrentCustody(ctx context.Context) ([]domain.CustodyRow, error)

	Assignments(ctx context.Context) ([]domain.Assignment, error)
	CreateAssignment(ctx context.Context, p domain.AssignmentPayload, idempotencyKey string) (domain.Assignment, error)
	UpdateAssignment(ctx context.Context, id domain.ID, p domain.AssignmentPayload) (domain.Assignment, error)
	VoidAssignment(ctx context.Context, id domain.ID, reason string) error

	Receptions(ctx context.Context) ([]domain.Reception, error)
	CreateReception(ctx context.Context, p domain.ReceptionPayload, idempotencyKey string) (domain.Reception, error)
	UpdateReception(ctx context.Context, id domain.ID, p domain.ReceptionPayload) (domain.Reception, error)
	VoidReception(ctx context.Context, id domain.ID, reason string) error

	GenerateAssignmentActa(ctx context.Context, assignmentID domain.ID) (domain.Acta, error)
	GenerateReceptionActa(ctx context.Context, receptionID domain.ID) (domain.Acta, error)
}

type Service struct {
	up      Upstream
	journal Journal
	guard   *inflight.Guard
	cache   *refcache.Cache
	clock   clock.Clock
	ids     clock.IDGen
	log     logrus.FieldLogger
}

func NewService(up Upstream, journal Journal, guard *inflight.Guard, cache *refcache.Cache,
	clk clock.Clock, ids clock.IDGen, log logrus.FieldLogger) *Service {
	return &Service{up: up, journal: journal, guard: guard, cache: cache, clock: clk, ids: ids, log: log}
}

const msgBusy = "Ya se está guardando este formulario. Espera a que termine."

// ===== Requests / outcomes =====

type AssignmentRequest struct {
	domain.AssignmentDraft
	Assets       []domain.ID `json:"productos"`
	GenerateActa bool        `json:"generar_acta"`
}

type ReceptionRequest struct {
	domain.ReceptionDraft
	Assets       []domain.ID `json:"productos"`
	GenerateActa bool        `json:"generar_acta"`
}

// Outcome reports a saga run. Steps after the first failure stay pending.
type Outcome struct {
	SagaID    string              `json:"saga_id"`
	Status    SagaStatus          `json:"estado"`
	Steps     []Step              `json:"pasos"`
	Message   string              `json:"mensaje"`
	ActaID    domain.ID           `json:"acta_id,omitempty"`
	ActaError string              `json:"acta_error,omitempty"`
	Custody   []domain.CustodyRow `json:"custodia"`
}

// ===== Reads shared by every operation =====

func (s *Service) snapshot(ctx context.Context) ([]domain.CustodyRow, error) {
	rows, err := s.up.CurrentCustody(ctx)
	if err != nil {
		return nil, backend.AsAPIError(err)
	}
	return rows, nil
}

// refreshSnapshot is the post-mutation re-fetch. A failure is logged and the
// outcome carries no snapshot.
func (s *Service) refreshSnapshot(ctx context.Context) []domain.CustodyRow {
	rows, err := s.up.CurrentCustody(ctx)
	if err != nil {
		s.log.WithError(err).Warn("custody snapshot refresh failed")
		return nil
	}
	return rows
}

func (s *Service) freshAssets(ctx context.Context) ([]domain.Asset, error) {
	s.cache.Invalidate(refcache.KeyAssets)
	list, err := refcache.Fetch(ctx, s.cache, refcache.KeyAssets, s.up.Assets)
	if err != nil {
		return nil, backend.AsAPIError(err)
	}
	return list, nil
}

// resolveSelection groups the requested ids by the category the asset list
// says they belong to. Duplicates are dropped; unknown ids are reported.
func resolveSelection(ids []domain.ID, assets []domain.Asset) (domain.Selection, validation.Errors) {
	byID := make(map[domain.ID]domain.Asset, len(assets))
	for _, a := range assets {
		byID[a.ID] = a
	}
	errs := validation.Errors{}
	seen := map[domain.ID]struct{}{}
	var picked []domain.Asset
	var unknown []string
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		a, ok := byID[id]
		if !ok {
			unknown = append(unknown, id.String())
			continue
		}
		picked = append(picked, a)
	}
	if len(unknown) > 0 {
		errs.Set(custody.FieldAssets, "Estos bienes no existen: "+strings.Join(unknown, ", "))
	}
	return domain.GroupByCategory(picked), errs
}

func inactiveIn(sel domain.Selection) []string {
	var out []string
	for _, cat := range sel.Categories() {
		for _, a := range sel[cat] {
			if !a.Active() {
				out = append(out, custody.Label(a))
			}
		}
	}
	return out
}

// ===== Submission saga =====

func (s *Service) SubmitAssignment(ctx context.Context, req AssignmentRequest, by domain.ID) (Outcome, error) {
	release, ok := s.guard.Acquire(string(KindAssignment))
	if !ok {
		return Outcome{}, apierr.Conflict(msgBusy)
	}
	defer release()

	sel, err := s.checkAssignment(ctx, req.AssignmentDraft, req.Assets, 0)
	if err != nil {
		return Outcome{}, err
	}
	saga, err := s.newSaga(ctx, KindAssignment, req.ResponsibleID, req.DepartmentID, req.Date, sel, req.GenerateActa, by)
	if err != nil {
		return Outcome{}, err
	}
	return s.run(ctx, saga, 0), nil
}

func (s *Service) SubmitReception(ctx context.Context, req ReceptionRequest, by domain.ID) (Outcome, error) {
	release, ok := s.guard.Acquire(string(KindReception))
	if !ok {
		return Outcome{}, apierr.Conflict(msgBusy)
	}
	defer release()

	sel, err := s.checkReception(ctx, req.ReceptionDraft, req.Assets, nil)
	if err != nil {
		return Outcome{}, err
	}
	saga, err := s.newSaga(ctx, KindReception, req.ResponsibleID, req.DepartmentID, req.Date, sel, req.GenerateActa, by)
	if err != nil {
		return Outcome{}, err
	}
	return s.run(ctx, saga, 0), nil
}

// checkAssignment fetches fresh state and validates. editing is the record
// being edited, or 0.
func (s *Service) checkAssignment(ctx context.Context, d domain.AssignmentDraft, ids []domain.ID, editing domain.ID, only ...domain.Category) (domain.Selection, error) {
	rows, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	history, err := s.up.Assignments(ctx)
	if err != nil {
		return nil, backend.AsAPIError(err)
	}
	assets, err := s.freshAssets(ctx)
	if err != nil {
		return nil, err
	}

	sel, unknown := resolveSelection(ids, assets)
	if len(only) > 0 {
		sel = sel.Only(only...)
	}
	errs := custody.ValidateAssignment(custody.AssignmentCheck{
		Draft:     d,
		Selected:  sel,
		History:   history,
		Current:   rows,
		Now:       s.clock.Now(),
		EditingID: editing,
	})
	errs.Merge(unknown)
	if bad := inactiveIn(sel); len(bad) > 0 && !errs.Has(custody.FieldGeneral) {
		errs.Set(custody.FieldGeneral, "Hay bienes dados de baja: "+strings.Join(bad, ", "))
	}
	if !errs.OK() {
		return nil, apierr.Validation(errs)
	}
	return sel, nil
}

// checkReception validates a reception. extra rows are added to the snapshot
// so an edited reception may keep the assets it already received.
func (s *Service) checkReception(ctx context.Context, d domain.ReceptionDraft, ids []domain.ID, extra []domain.CustodyRow, only ...domain.Category) (domain.Selection, error) {
	rows, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	assets, err := s.freshAssets(ctx)
	if err != nil {
		return nil, err
	}
	if len(extra) > 0 {
		held := custody.BuildLookup(rows)
		for _, r := range extra {
			if _, ok := held.Holder(r.AssetID); !ok {
				rows = append(rows, r)
			}
		}
	}

	sel, unknown := resolveSelection(ids, assets)
	if len(only) > 0 {
		sel = sel.Only(only...)
	}
	errs := custody.ValidateReception(custody.ReceptionCheck{
		Draft:    d,
		Selected: sel,
		Current:  rows,
		Now:      s.clock.Now(),
	})
	errs.Merge(unknown)
	if !errs.OK() {
		return nil, apierr.Validation(errs)
	}
	return sel, nil
}

func (s *Service) newSaga(ctx context.Context, kind Kind, responsible, department domain.ID, date string,
	sel domain.Selection, acta bool, by domain.ID) (*Saga, error) {
	id, err := s.ids.New()
	if err != nil {
		return nil, apierr.Internal(fmt.Sprintf("saga id: %v", err))
	}
	now := s.clock.Now()
	saga := &Saga{
		ID:            id,
		Kind:          kind,
		ResponsibleID: responsible,
		DepartmentID:  department,
		Date:          date,
		Status:        SagaPending,
		ActaRequested: acta,
		CreatedBy:     by,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i, cat := range sel.Categories() {
		stepID, err := s.ids.New()
		if err != nil {
			return nil, apierr.Internal(fmt.Sprintf("step id: %v", err))
		}
		saga.Steps = append(saga.Steps, Step{
			ID:        stepID,
			SagaID:    id,
			Position:  i,
			Category:  cat,
			Assets:    sel.IDs(cat),
			Status:    StepPending,
			UpdatedAt: now,
		})
	}
	if err := s.journal.Create(ctx, saga); err != nil {
		s.log.WithError(err).Error("saga journal create failed")
		return nil, apierr.Internal("no se pudo registrar la operación")
	}
	return saga, nil
}

// run posts every step that is not done, in order, and stops at the first
// rejection. It keeps going if the caller disconnects. adopted counts steps
// already marked done from upstream records before this run.
func (s *Service) run(ctx context.Context, saga *Saga, adopted int) Outcome {
	ctx = context.WithoutCancel(ctx)
	log := s.log.WithFields(logrus.Fields{"saga_id": saga.ID, "tipo": saga.Kind})

	created := adopted
	var failure error
	for i := range saga.Steps {
		st := &saga.Steps[i]
		if st.Status == StepDone {
			continue
		}
		st.Attempts++
		recordID, err := s.post(ctx, saga, *st)
		st.UpdatedAt = s.clock.Now()
		if err != nil {
			st.Status = StepFailed
			st.Error = backend.Message(err)
			failure = err
			log.WithError(err).WithField("categoria", st.Category).Warn("saga step rejected")
		} else {
			st.Status = StepDone
			st.RecordID = recordID
			st.Error = ""
			created++
		}
		if jerr := s.journal.RecordStep(ctx, *st); jerr != nil {
			log.WithError(jerr).Error("saga journal step update failed")
		}
		if failure != nil {
			break
		}
	}

	saga.Status = saga.Resolve()
	if err := s.journal.SetStatus(ctx, saga.ID, saga.Status, s.clock.Now()); err != nil {
		log.WithError(err).Error("saga journal status update failed")
	}

	out := Outcome{
		SagaID:  saga.ID,
		Status:  saga.Status,
		Steps:   saga.Steps,
		Message: s.message(saga, failure),
		Custody: s.refreshSnapshot(ctx),
	}
	if saga.ActaRequested && created > 0 {
		out.ActaID, out.ActaError = s.generateActa(ctx, saga)
	}
	log.WithFields(logrus.Fields{"estado": saga.Status, "creados": created}).Info("saga run finished")
	return out
}

func (s *Service) post(ctx context.Context, saga *Saga, st Step) (domain.ID, error) {
	if saga.Kind == KindReception {
		r, err := s.up.CreateReception(ctx, domain.ReceptionPayload{
			ResponsibleID: saga.ResponsibleID,
			DepartmentID:  saga.DepartmentID,
			Date:          saga.Date,
			Category:      st.Category,
			Assets:        st.Assets,
		}, st.ID)
		return r.ID, err
	}
	a, err := s.up.CreateAssignment(ctx, domain.AssignmentPayload{
		ResponsibleID: saga.ResponsibleID,
		DepartmentID:  saga.DepartmentID,
		Date:          saga.Date,
		Category:      st.Category,
		Assets:        st.Assets,
	}, st.ID)
	return a.ID, err
}

func (s *Service) message(saga *Saga, failure error) string {
	switch saga.Status {
	case SagaCompleted:
		if saga.Kind == KindReception {
			return "Recepción registrada correctamente"
		}
		return "Asignaciones registradas correctamente"
	case SagaPartial:
		done := len(saga.DoneIDs())
		return fmt.Sprintf("Se registraron %d de %d categorías. %s", done, len(saga.Steps), backend.Message(failure))
	default:
		return backend.Message(failure)
	}
}

// generateActa targets the last created assignment or the first created
// reception. Its failure never fails the saga.
func (s *Service) generateActa(ctx context.Context, saga *Saga) (domain.ID, string) {
	ids := saga.DoneIDs()
	if saga.Kind == KindReception {
		acta, err := s.up.GenerateReceptionActa(ctx, ids[0])
		if err != nil {
			s.log.WithError(err).WithField("recepcion_id", ids[0]).Warn("reception acta generation failed")
			return 0, "La recepción se guardó, pero no se pudo generar el acta de recepción"
		}
		return acta.ID, ""
	}
	last := ids[len(ids)-1]
	acta, err := s.up.GenerateAssignmentActa(ctx, last)
	if err != nil {
		s.log.WithError(err).WithField("asignacion_id", last).Warn("assignment acta generation failed")
		return 0, "La asignación se guardó, pero no se pudo generar el acta"
	}
	return acta.ID, ""
}

// ===== Saga inspection / retry =====

func (s *Service) Saga(ctx context.Context, id string) (*Saga, error) {
	saga, err := s.journal.Get(ctx, id)
	if errors.Is(err, ErrSagaNotFound) {
		return nil, apierr.NotFound("Operación no encontrada")
	}
	if err != nil {
		return nil, apierr.Internal(err.Error())
	}
	return saga, nil
}

func (s *Service) OpenSagas(ctx context.Context, kind Kind, limit int) ([]Saga, error) {
	list, err := s.journal.ListOpen(ctx, kind, limit)
	if err != nil {
		return nil, apierr.Internal(err.Error())
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

// RetrySaga re-validates the steps that are not done against fresh state and
// submits them with their original idempotency keys.
func (s *Service) RetrySaga(ctx context.Context, id string) (Outcome, error) {
	saga, err := s.Saga(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if saga.Status == SagaCompleted {
		return Outcome{}, apierr.Conflict("La operación ya se completó.")
	}
	release, ok := s.guard.Acquire(string(saga.Kind))
	if !ok {
		return Outcome{}, apierr.Conflict(msgBusy)
	}
	defer release()

	adopted, err := s.adoptCommitted(ctx, saga)
	if err != nil {
		return Outcome{}, err
	}
	remaining := saga.Remaining()
	if len(remaining) == 0 {
		return s.run(ctx, saga, adopted), nil
	}

	var ids []domain.ID
	var cats []domain.Category
	for _, st := range remaining {
		ids = append(ids, st.Assets...)
		cats = append(cats, st.Category)
	}
	if saga.Kind == KindReception {
		d := domain.ReceptionDraft{ResponsibleID: saga.ResponsibleID, Date: saga.Date, DepartmentID: saga.DepartmentID}
		_, err = s.checkReception(ctx, d, ids, nil, cats...)
	} else {
		d := domain.AssignmentDraft{ResponsibleID: saga.ResponsibleID, Date: saga.Date, DepartmentID: saga.DepartmentID}
		_, err = s.checkAssignment(ctx, d, ids, 0, cats...)
	}
	if err != nil {
		return Outcome{}, err
	}
	return s.run(ctx, saga, adopted), nil
}

// adoptCommitted marks attempted steps as done when their record already
// exists upstream: the POST went through but its response never came back.
// Re-validating those steps would report them as duplicates forever.
func (s *Service) adoptCommitted(ctx context.Context, saga *Saga) (int, error) {
	list, err := s.records(ctx, saga.Kind)
	if err != nil {
		return 0, err
	}
	taken := make(map[domain.ID]bool)
	for _, id := range saga.DoneIDs() {
		taken[id] = true
	}

	adopted := 0
	for i := range saga.Steps {
		st := &saga.Steps[i]
		if st.Status == StepDone || st.Attempts == 0 {
			continue
		}
		rec, ok := committedRecord(list, saga, *st, taken)
		if !ok {
			continue
		}
		taken[rec.ID] = true
		st.Status = StepDone
		st.RecordID = rec.ID
		st.Error = ""
		st.UpdatedAt = s.clock.Now()
		if err := s.journal.RecordStep(ctx, *st); err != nil {
			s.log.WithError(err).WithField("saga_id", saga.ID).Error("saga journal step update failed")
		}
		s.log.WithFields(logrus.Fields{"saga_id": saga.ID, "categoria": st.Category, "registro": rec.ID}).
			Info("saga step found upstream")
		adopted++
	}
	return adopted, nil
}

// committedRecord finds an active record with the step's header, category
// and exact asset set that no other step already claimed.
func committedRecord(list []Record, saga *Saga, st Step, taken map[domain.ID]bool) (Record, bool) {
	for _, r := range list {
		if taken[r.ID] || !r.Active || r.Category != st.Category ||
			r.ResponsibleID != saga.ResponsibleID || r.DepartmentID != saga.DepartmentID ||
			r.Day() != day(saga.Date) {
			continue
		}
		if sameAssets(r.Assets, st.Assets) {
			return r, true
		}
	}
	return Record{}, false
}

func sameAssets(assets []domain.Asset, ids []domain.ID) bool {
	want := make(map[domain.ID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	got := make(map[domain.ID]bool, len(assets))
	for _, a := range assets {
		if !want[a.ID] {
			return false
		}
		got[a.ID] = true
	}
	return len(got) == len(want)
}
