package asignaciones

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/apierr"
	"EPESPO-inventario/internal/platform/backend"
	"EPESPO-inventario/internal/platform/clock"
	"EPESPO-inventario/internal/platform/inflight"
	"EPESPO-inventario/internal/platform/logger"
	"EPESPO-inventario/internal/platform/refcache"
)

var now = time.Date(2026, 10, 15, 10, 0, 0, 0, time.FixedZone("ECT", -5*3600))

var (
	laptop  = domain.Asset{ID: 1, Code: "E-EC-2026-001", Name: "Laptop", Category: domain.CategoryComputer, State: domain.AssetActive}
	monitor = domain.Asset{ID: 2, Code: "E-EC-2026-002", Name: "Monitor", Category: domain.CategoryComputer, State: domain.AssetActive}
	desk    = domain.Asset{ID: 3, Code: "E-ME-2026-001", Name: "Escritorio", Category: domain.CategoryFurniture, State: domain.AssetActive}
	drill   = domain.Asset{ID: 4, Code: "E-IM-2026-001", Name: "Taladro", Category: domain.CategoryFacilities, State: domain.AssetActive}
	broken  = domain.Asset{ID: 5, Code: "E-ME-2026-002", Name: "Silla rota", Category: domain.CategoryFurniture, State: domain.AssetInactive}
)

type posted struct {
	category domain.Category
	assets   []domain.ID
	key      string
}

type fakeUpstream struct {
	mu           sync.Mutex
	assets       []domain.Asset
	rows         []domain.CustodyRow
	assignments  []domain.Assignment
	receptions   []domain.Reception
	responsibles []domain.Responsible

	reject       map[domain.Category]error
	lost         map[domain.Category]bool
	rejectVoid   map[domain.ID]error
	rejectActa   error
	posts        []posted
	updates      []domain.AssignmentPayload
	recUpdates   []domain.ReceptionPayload
	voids        map[domain.ID]string
	actas        []domain.ID
	custodyCalls int
	nextID       domain.ID
}

func inventory() *fakeUpstream {
	return &fakeUpstream{
		assets:       []domain.Asset{laptop, monitor, desk, drill, broken},
		responsibles: []domain.Responsible{{ID: 7, FirstName: "María", LastName: "Pérez"}, {ID: 8, FirstName: "Luis", LastName: "Vera"}},
		reject:       map[domain.Category]error{},
		lost:         map[domain.Category]bool{},
		rejectVoid:   map[domain.ID]error{},
		voids:        map[domain.ID]string{},
		nextID:       100,
	}
}

func (f *fakeUpstream) Assets(context.Context) ([]domain.Asset, error) { return f.assets, nil }

func (f *fakeUpstream) Responsibles(context.Context) ([]domain.Responsible, error) {
	return f.responsibles, nil
}

func (f *fakeUpstream) CurrentCustody(context.Context) ([]domain.CustodyRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.custodyCalls++
	return f.rows, nil
}

func (f *fakeUpstream) Assignments(context.Context) ([]domain.Assignment, error) {
	return f.assignments, nil
}

func (f *fakeUpstream) CreateAssignment(_ context.Context, p domain.AssignmentPayload, key string) (domain.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, posted{category: p.Category, assets: p.Assets, key: key})
	if err := f.reject[p.Category]; err != nil {
		return domain.Assignment{}, err
	}
	f.nextID++
	for _, id := range p.Assets {
		f.rows = append(f.rows, domain.CustodyRow{AssetID: id, ResponsibleID: p.ResponsibleID, DepartmentID: p.DepartmentID, AssignmentID: f.nextID})
	}
	if f.lost[p.Category] {
		delete(f.lost, p.Category)
		f.assignments = append(f.assignments, domain.Assignment{
			ID: f.nextID, ResponsibleID: p.ResponsibleID, DepartmentID: p.DepartmentID, Date: p.Date,
			Category: p.Category, Assets: f.assetsOf(p.Assets), Active: true,
		})
		return domain.Assignment{}, context.DeadlineExceeded
	}
	return domain.Assignment{ID: f.nextID, Category: p.Category, Active: true}, nil
}

func (f *fakeUpstream) UpdateAssignment(_ context.Context, id domain.ID, p domain.AssignmentPayload) (domain.Assignment, error) {
	f.updates = append(f.updates, p)
	return domain.Assignment{ID: id, ResponsibleID: p.ResponsibleID, Category: p.Category, Active: true}, nil
}

func (f *fakeUpstream) VoidAssignment(_ context.Context, id domain.ID, reason string) error {
	if err := f.rejectVoid[id]; err != nil {
		return err
	}
	f.voids[id] = reason
	return nil
}

func (f *fakeUpstream) Receptions(context.Context) ([]domain.Reception, error) {
	return f.receptions, nil
}

func (f *fakeUpstream) CreateReception(_ context.Context, p domain.ReceptionPayload, key string) (domain.Reception, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, posted{category: p.Category, assets: p.Assets, key: key})
	if err := f.reject[p.Category]; err != nil {
		return domain.Reception{}, err
	}
	f.nextID++
	if f.lost[p.Category] {
		delete(f.lost, p.Category)
		f.receptions = append(f.receptions, domain.Reception{
			ID: f.nextID, ResponsibleID: p.ResponsibleID, DepartmentID: p.DepartmentID, Date: p.Date,
			Category: p.Category, Assets: f.assetsOf(p.Assets), Active: true,
		})
		return domain.Reception{}, context.DeadlineExceeded
	}
	return domain.Reception{ID: f.nextID, Category: p.Category, Active: true}, nil
}

func (f *fakeUpstream) assetsOf(ids []domain.ID) []domain.Asset {
	var out []domain.Asset
	for _, a := range f.assets {
		for _, id := range ids {
			if a.ID == id {
				out = append(out, a)
			}
		}
	}
	return out
}

func (f *fakeUpstream) UpdateReception(_ context.Context, id domain.ID, p domain.ReceptionPayload) (domain.Reception, error) {
	f.recUpdates = append(f.recUpdates, p)
	return domain.Reception{ID: id, ResponsibleID: p.ResponsibleID, Category: p.Category, Active: true}, nil
}

func (f *fakeUpstream) VoidReception(_ context.Context, id domain.ID, reason string) error {
	f.voids[id] = reason
	return nil
}

func (f *fakeUpstream) GenerateAssignmentActa(_ context.Context, id domain.ID) (domain.Acta, error) {
	if f.rejectActa != nil {
		return domain.Acta{}, f.rejectActa
	}
	f.actas = append(f.actas, id)
	return domain.Acta{ID: 900 + id}, nil
}

func (f *fakeUpstream) GenerateReceptionActa(_ context.Context, id domain.ID) (domain.Acta, error) {
	f.actas = append(f.actas, id)
	return domain.Acta{ID: 900 + id}, nil
}

// seqIDs hands out predictable ids.
type seqIDs struct{ n int }

func (s *seqIDs) New() (string, error) {
	s.n++
	return fmt.Sprintf("K%02d", s.n), nil
}

func newTestService(up Upstream) (*Service, *MemoryJournal, *inflight.Guard) {
	j := NewMemoryJournal()
	g := inflight.New()
	svc := NewService(up, j, g, refcache.New(time.Minute, time.Minute), clock.Fixed(now), &seqIDs{}, logger.Discard())
	return svc, j, g
}

func assignmentOf(ids ...domain.ID) AssignmentRequest {
	return AssignmentRequest{
		AssignmentDraft: domain.AssignmentDraft{ResponsibleID: 7, Date: "2026-10-15", DepartmentID: 3},
		Assets:          ids,
	}
}

func rejected(field, msg string) error {
	return &backend.RemoteError{Status: 422, Errors: map[string][]string{field: {msg}}}
}

func TestSubmitAssignmentOnePostPerCategory(t *testing.T) {
	up := inventory()
	svc, j, _ := newTestService(up)
	req := assignmentOf(desk.ID, laptop.ID, monitor.ID)
	req.GenerateActa = true

	out, err := svc.SubmitAssignment(context.Background(), req, 1)
	require.NoError(t, err)

	assert.Equal(t, SagaCompleted, out.Status)
	assert.Equal(t, "Asignaciones registradas correctamente", out.Message)
	require.Len(t, up.posts, 2)
	assert.Equal(t, domain.CategoryComputer, up.posts[0].category)
	assert.Equal(t, []domain.ID{laptop.ID, monitor.ID}, up.posts[0].assets)
	assert.Equal(t, domain.CategoryFurniture, up.posts[1].category)

	// idempotency keys are the step ids
	require.Len(t, out.Steps, 2)
	assert.Equal(t, out.Steps[0].ID, up.posts[0].key)
	assert.Equal(t, out.Steps[1].ID, up.posts[1].key)

	// acta for the last created assignment
	assert.Equal(t, []domain.ID{102}, up.actas)
	assert.Equal(t, domain.ID(1002), out.ActaID)

	// snapshot fetched before validating and after submitting
	assert.Equal(t, 2, up.custodyCalls)
	assert.Len(t, out.Custody, 3)

	saga, err := j.Get(context.Background(), out.SagaID)
	require.NoError(t, err)
	assert.Equal(t, SagaCompleted, saga.Status)
	assert.Equal(t, domain.ID(1), saga.CreatedBy)
}

func TestSubmitAssignmentPartialFailureStopsAtFirstRejection(t *testing.T) {
	up := inventory()
	up.reject[domain.CategoryFurniture] = rejected("productos", "El bien E-ME-2026-001 ya está asignado.")
	svc, j, _ := newTestService(up)
	req := assignmentOf(laptop.ID, desk.ID, drill.ID)
	req.GenerateActa = true

	out, err := svc.SubmitAssignment(context.Background(), req, 1)
	require.NoError(t, err)

	assert.Equal(t, SagaPartial, out.Status)
	assert.Equal(t, "Se registraron 1 de 3 categorías. El bien E-ME-2026-001 ya está asignado.", out.Message)
	require.Len(t, up.posts, 2, "facilities must not be posted after the failure")

	require.Len(t, out.Steps, 3)
	assert.Equal(t, StepDone, out.Steps[0].Status)
	assert.Equal(t, domain.ID(101), out.Steps[0].RecordID)
	assert.Equal(t, StepFailed, out.Steps[1].Status)
	assert.Equal(t, "El bien E-ME-2026-001 ya está asignado.", out.Steps[1].Error)
	assert.Equal(t, StepPending, out.Steps[2].Status)

	// the created record still gets its acta
	assert.Equal(t, []domain.ID{101}, up.actas)
	assert.Equal(t, 2, up.custodyCalls)

	open, err := j.ListOpen(context.Background(), KindAssignment, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, out.SagaID, open[0].ID)
}

func TestSubmitAssignmentNothingCreated(t *testing.T) {
	up := inventory()
	up.reject[domain.CategoryComputer] = &backend.RemoteError{Status: 500}
	svc, _, _ := newTestService(up)
	req := assignmentOf(laptop.ID)
	req.GenerateActa = true

	out, err := svc.SubmitAssignment(context.Background(), req, 1)
	require.NoError(t, err)

	assert.Equal(t, SagaFailed, out.Status)
	assert.Equal(t, "Error del servidor. Intenta nuevamente.", out.Message)
	assert.Empty(t, up.actas)
	assert.Equal(t, 2, up.custodyCalls, "snapshot is refreshed after a failure too")
}

func TestRetrySagaPostsOnlyRemainingStepsWithSameKeys(t *testing.T) {
	up := inventory()
	up.reject[domain.CategoryFurniture] = &backend.RemoteError{Status: 503}
	svc, j, _ := newTestService(up)

	first, err := svc.SubmitAssignment(context.Background(), assignmentOf(laptop.ID, desk.ID, drill.ID), 1)
	require.NoError(t, err)
	require.Equal(t, SagaPartial, first.Status)
	furnitureKey := first.Steps[1].ID

	delete(up.reject, domain.CategoryFurniture)
	up.posts = nil

	out, err := svc.RetrySaga(context.Background(), first.SagaID)
	require.NoError(t, err)

	assert.Equal(t, SagaCompleted, out.Status)
	require.Len(t, up.posts, 2)
	assert.Equal(t, domain.CategoryFurniture, up.posts[0].category)
	assert.Equal(t, furnitureKey, up.posts[0].key)
	assert.Equal(t, domain.CategoryFacilities, up.posts[1].category)
	assert.Equal(t, 2, out.Steps[1].Attempts)

	saga, err := j.Get(context.Background(), first.SagaID)
	require.NoError(t, err)
	assert.Equal(t, SagaCompleted, saga.Status)

	_, err = svc.RetrySaga(context.Background(), first.SagaID)
	var aerr *apierr.APIError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, apierr.CodeConflict, aerr.Code)
}

func TestRetrySagaRevalidates(t *testing.T) {
	up := inventory()
	up.reject[domain.CategoryFurniture] = &backend.RemoteError{Status: 503}
	svc, _, _ := newTestService(up)

	first, err := svc.SubmitAssignment(context.Background(), assignmentOf(laptop.ID, desk.ID), 1)
	require.NoError(t, err)

	// someone else took the desk meanwhile
	up.rows = append(up.rows, domain.CustodyRow{AssetID: desk.ID, ResponsibleID: 8, DepartmentID: 4, AssignmentID: 77})
	delete(up.reject, domain.CategoryFurniture)
	up.posts = nil

	_, err = svc.RetrySaga(context.Background(), first.SagaID)
	var verr *apierr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Errors["general"], "E-ME-2026-001 - Escritorio")
	assert.Empty(t, up.posts)
}

func TestRetrySagaAdoptsRecordWhoseResponseWasLost(t *testing.T) {
	up := inventory()
	up.lost[domain.CategoryFurniture] = true
	svc, j, _ := newTestService(up)

	req := assignmentOf(laptop.ID, desk.ID, drill.ID)
	req.GenerateActa = true
	first, err := svc.SubmitAssignment(context.Background(), req, 1)
	require.NoError(t, err)
	require.Equal(t, SagaPartial, first.Status)
	require.Equal(t, StepFailed, first.Steps[1].Status)
	committed := up.assignments[0].ID
	up.posts = nil
	up.actas = nil

	out, err := svc.RetrySaga(context.Background(), first.SagaID)
	require.NoError(t, err)
	assert.Equal(t, SagaCompleted, out.Status)

	// only the step that never reached the backend is posted again
	require.Len(t, up.posts, 1)
	assert.Equal(t, domain.CategoryFacilities, up.posts[0].category)
	assert.Equal(t, StepDone, out.Steps[1].Status)
	assert.Equal(t, committed, out.Steps[1].RecordID)
	assert.Empty(t, out.Steps[1].Error)

	saga, err := j.Get(context.Background(), first.SagaID)
	require.NoError(t, err)
	assert.Equal(t, committed, saga.Steps[1].RecordID)
	assert.Len(t, up.actas, 1)
}

func TestRetrySagaAdoptsLostReceptionWithoutPosting(t *testing.T) {
	up := inventory()
	up.rows = []domain.CustodyRow{{AssetID: desk.ID, ResponsibleID: 7, DepartmentID: 3, AssignmentID: 60}}
	up.lost[domain.CategoryFurniture] = true
	svc, _, _ := newTestService(up)

	first, err := svc.SubmitReception(context.Background(), ReceptionRequest{
		ReceptionDraft: domain.ReceptionDraft{ResponsibleID: 7, Date: "2026-10-15", DepartmentID: 3},
		Assets:         []domain.ID{desk.ID},
		GenerateActa:   true,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, SagaFailed, first.Status)
	up.posts = nil

	out, err := svc.RetrySaga(context.Background(), first.SagaID)
	require.NoError(t, err)
	assert.Equal(t, SagaCompleted, out.Status)
	assert.Empty(t, up.posts)
	assert.Equal(t, up.receptions[0].ID, out.Steps[0].RecordID)
	assert.Equal(t, []domain.ID{up.receptions[0].ID}, up.actas)
}

func TestRetrySagaIgnoresForeignRecords(t *testing.T) {
	up := inventory()
	up.reject[domain.CategoryFurniture] = &backend.RemoteError{Status: 503}
	svc, _, _ := newTestService(up)

	first, err := svc.SubmitAssignment(context.Background(), assignmentOf(laptop.ID, desk.ID), 1)
	require.NoError(t, err)

	// same header and category, different desk set: not this step's record
	up.assignments = append(up.assignments, domain.Assignment{
		ID: 500, ResponsibleID: 7, DepartmentID: 3, Date: "2026-10-15",
		Category: domain.CategoryFurniture, Assets: []domain.Asset{desk, broken}, Active: true,
	})
	delete(up.reject, domain.CategoryFurniture)
	up.posts = nil

	_, err = svc.RetrySaga(context.Background(), first.SagaID)
	var verr *apierr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, up.posts)
}

func TestRetryUnknownSaga(t *testing.T) {
	svc, _, _ := newTestService(inventory())
	_, err := svc.RetrySaga(context.Background(), "nope")
	var aerr *apierr.APIError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, apierr.CodeNotFound, aerr.Code)
}

func TestSubmitAssignmentValidationSubmitsNothing(t *testing.T) {
	tests := []struct {
		name  string
		rows  []domain.CustodyRow
		ids   []domain.ID
		field string
		want  string
	}{
		{
			name:  "asset held by someone",
			rows:  []domain.CustodyRow{{AssetID: laptop.ID, ResponsibleID: 8, AssignmentID: 60}},
			ids:   []domain.ID{laptop.ID},
			field: "general",
			want:  "Hay bienes que ya están asignados actualmente: E-EC-2026-001 - Laptop",
		},
		{
			name:  "unknown asset",
			ids:   []domain.ID{laptop.ID, 404},
			field: "bienes",
			want:  "Estos bienes no existen: 404",
		},
		{
			name:  "inactive asset",
			ids:   []domain.ID{broken.ID},
			field: "general",
			want:  "Hay bienes dados de baja: E-ME-2026-002 - Silla rota",
		},
		{
			name:  "empty selection",
			field: "bienes",
			want:  "Debe seleccionar al menos un bien para asignar",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := inventory()
			up.rows = tt.rows
			svc, j, _ := newTestService(up)

			_, err := svc.SubmitAssignment(context.Background(), assignmentOf(tt.ids...), 1)

			var verr *apierr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Errors[tt.field])
			assert.Empty(t, up.posts)
			open, _ := j.ListOpen(context.Background(), KindAssignment, 0)
			assert.Empty(t, open)
		})
	}
}

func TestSubmitRefusedWhileFormBusy(t *testing.T) {
	up := inventory()
	svc, _, guard := newTestService(up)
	release, ok := guard.Acquire(string(KindAssignment))
	require.True(t, ok)
	defer release()

	_, err := svc.SubmitAssignment(context.Background(), assignmentOf(laptop.ID), 1)

	var aerr *apierr.APIError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, apierr.CodeConflict, aerr.Code)
	assert.Empty(t, up.posts)

	// the reception form is independent
	up.rows = []domain.CustodyRow{{AssetID: monitor.ID, ResponsibleID: 7, DepartmentID: 3, AssignmentID: 60}}
	_, err = svc.SubmitReception(context.Background(), ReceptionRequest{
		ReceptionDraft: domain.ReceptionDraft{ResponsibleID: 7, Date: "2026-10-15", DepartmentID: 3},
		Assets:         []domain.ID{monitor.ID},
	}, 1)
	assert.NoError(t, err)
}

func TestSubmitReceptionActaUsesFirstRecord(t *testing.T) {
	up := inventory()
	up.rows = []domain.CustodyRow{
		{AssetID: laptop.ID, ResponsibleID: 7, DepartmentID: 3, AssignmentID: 60},
		{AssetID: desk.ID, ResponsibleID: 7, DepartmentID: 3, AssignmentID: 61},
	}
	svc, _, _ := newTestService(up)

	out, err := svc.SubmitReception(context.Background(), ReceptionRequest{
		ReceptionDraft: domain.ReceptionDraft{ResponsibleID: 7, Date: "2026-10-15", DepartmentID: 3},
		Assets:         []domain.ID{desk.ID, laptop.ID},
		GenerateActa:   true,
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, SagaCompleted, out.Status)
	assert.Equal(t, "Recepción registrada correctamente", out.Message)
	assert.Equal(t, []domain.ID{101}, up.actas)
}

func TestSubmitReceptionNotHeldByResponsible(t *testing.T) {
	up := inventory()
	up.rows = []domain.CustodyRow{{AssetID: laptop.ID, ResponsibleID: 8, DepartmentID: 3, AssignmentID: 60}}
	svc, _, _ := newTestService(up)

	_, err := svc.SubmitReception(context.Background(), ReceptionRequest{
		ReceptionDraft: domain.ReceptionDraft{ResponsibleID: 7, Date: "2026-10-15", DepartmentID: 3},
		Assets:         []domain.ID{laptop.ID},
	}, 1)

	var verr *apierr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, strings.HasPrefix(verr.Errors["general"], "Estos bienes NO están asignados actualmente"))
	assert.Empty(t, up.posts)
}

func TestActaFailureDoesNotFailOutcome(t *testing.T) {
	up := inventory()
	up.rejectActa = errors.New("timeout")
	svc, _, _ := newTestService(up)
	req := assignmentOf(laptop.ID)
	req.GenerateActa = true

	out, err := svc.SubmitAssignment(context.Background(), req, 1)
	require.NoError(t, err)

	assert.Equal(t, SagaCompleted, out.Status)
	assert.Equal(t, "La asignación se guardó, pero no se pudo generar el acta", out.ActaError)
	assert.Zero(t, out.ActaID)
}

func TestUpdateAssignmentKeepsOwnRowsAndCategory(t *testing.T) {
	up := inventory()
	up.assignments = []domain.Assignment{
		{ID: 60, ResponsibleID: 7, DepartmentID: 3, Category: domain.CategoryComputer, Active: true, Assets: []domain.Asset{laptop}},
	}
	up.rows = []domain.CustodyRow{{AssetID: laptop.ID, ResponsibleID: 7, DepartmentID: 3, AssignmentID: 60}}
	svc, _, _ := newTestService(up)

	req := assignmentOf(laptop.ID, monitor.ID, desk.ID)
	req.DepartmentID = 4
	out, err := svc.UpdateAssignment(context.Background(), 60, req)
	require.NoError(t, err)

	require.Len(t, up.updates, 1)
	assert.Equal(t, domain.CategoryComputer, up.updates[0].Category)
	assert.Equal(t, []domain.ID{laptop.ID, monitor.ID}, up.updates[0].Assets, "other categories are dropped")
	assert.Equal(t, domain.ID(4), up.updates[0].DepartmentID)
	assert.Equal(t, domain.ID(60), out.Record.ID)
	assert.Equal(t, 2, up.custodyCalls)
}

func TestUpdateVoidedRecordRefused(t *testing.T) {
	up := inventory()
	up.assignments = []domain.Assignment{{ID: 60, ResponsibleID: 7, DepartmentID: 3, Category: domain.CategoryComputer}}
	svc, _, _ := newTestService(up)

	_, err := svc.UpdateAssignment(context.Background(), 60, assignmentOf(laptop.ID))
	var aerr *apierr.APIError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, apierr.CodeConflict, aerr.Code)

	_, err = svc.UpdateAssignment(context.Background(), 61, assignmentOf(laptop.ID))
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, apierr.CodeNotFound, aerr.Code)
}

func TestUpdateReceptionAcceptsAlreadyReceivedAssets(t *testing.T) {
	up := inventory()
	// the laptop was handed back by reception 80, so nobody holds it
	up.receptions = []domain.Reception{
		{ID: 80, ResponsibleID: 7, DepartmentID: 3, Date: "2026-10-14 09:00:00", Category: domain.CategoryComputer, Active: true, Assets: []domain.Asset{laptop}},
	}
	svc, _, _ := newTestService(up)

	_, err := svc.UpdateReception(context.Background(), 80, ReceptionRequest{
		ReceptionDraft: domain.ReceptionDraft{ResponsibleID: 7, Date: "2026-10-14", DepartmentID: 3},
		Assets:         []domain.ID{laptop.ID},
	})
	require.NoError(t, err)
	require.Len(t, up.recUpdates, 1)
	assert.Equal(t, []domain.ID{laptop.ID}, up.recUpdates[0].Assets)

	// a different responsible cannot claim it
	_, err = svc.UpdateReception(context.Background(), 80, ReceptionRequest{
		ReceptionDraft: domain.ReceptionDraft{ResponsibleID: 8, Date: "2026-10-14", DepartmentID: 3},
		Assets:         []domain.ID{laptop.ID},
	})
	var verr *apierr.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func groupFixture() *fakeUpstream {
	up := inventory()
	up.assignments = []domain.Assignment{
		{ID: 60, ResponsibleID: 7, DepartmentID: 3, Date: "2026-10-10", Category: domain.CategoryComputer, Active: true, Assets: []domain.Asset{laptop}},
		{ID: 61, ResponsibleID: 7, DepartmentID: 3, Date: "2026-10-10", Category: domain.CategoryFurniture, Active: true, Assets: []domain.Asset{desk}},
		{ID: 62, ResponsibleID: 7, DepartmentID: 3, Date: "2026-10-10", Category: domain.CategoryOffice, Active: false},
		{ID: 63, ResponsibleID: 8, DepartmentID: 4, Date: "2026-10-11", Category: domain.CategoryComputer, Active: true, Assets: []domain.Asset{monitor}},
	}
	return up
}

func TestVoidSingleRecord(t *testing.T) {
	up := groupFixture()
	svc, _, _ := newTestService(up)

	out, err := svc.Void(context.Background(), KindAssignment, 60, "  equipo devuelto  ", ScopeRecord)
	require.NoError(t, err)

	assert.Equal(t, map[domain.ID]string{60: "equipo devuelto"}, up.voids)
	assert.Equal(t, []VoidResult{{ID: 60, OK: true}}, out.Results)
	assert.Equal(t, "Asignación anulada correctamente", out.Message)
	assert.Equal(t, 1, up.custodyCalls)
}

func TestVoidRules(t *testing.T) {
	up := groupFixture()
	svc, _, _ := newTestService(up)

	_, err := svc.Void(context.Background(), KindAssignment, 62, "", ScopeRecord)
	var aerr *apierr.APIError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, apierr.CodeConflict, aerr.Code)
	assert.Equal(t, "El registro ya está anulado.", aerr.Message)

	_, err = svc.Void(context.Background(), KindAssignment, 60, strings.Repeat("á", 501), ScopeRecord)
	var verr *apierr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "El motivo no debe superar 500 caracteres.", verr.Errors["motivo_anulacion"])

	_, err = svc.Void(context.Background(), KindAssignment, 60, strings.Repeat("á", 500), ScopeRecord)
	assert.NoError(t, err)

	up.rejectVoid[61] = &backend.RemoteError{Status: 403}
	_, err = svc.Void(context.Background(), KindAssignment, 61, "", ScopeRecord)
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, apierr.CodeForbidden, aerr.Code)
}

func TestVoidGroupReportsEachRow(t *testing.T) {
	up := groupFixture()
	up.rejectVoid[61] = rejected("productos", "No se puede anular.")
	svc, _, _ := newTestService(up)

	out, err := svc.Void(context.Background(), KindAssignment, 60, "", ScopeGroup)
	require.NoError(t, err)

	assert.Equal(t, []VoidResult{
		{ID: 60, OK: true},
		{ID: 61, OK: false, Error: "No se puede anular."},
	}, out.Results, "voided and foreign records are skipped")
	assert.Equal(t, "Se anularon 1 de 2 registros.", out.Message)
}

func TestListGroups(t *testing.T) {
	up := groupFixture()
	svc, _, _ := newTestService(up)

	groups, err := svc.ListGroups(context.Background(), KindAssignment, GroupFilter{})
	require.NoError(t, err)

	require.Len(t, groups, 3)
	assert.Equal(t, "María Pérez", groups[0].ResponsibleName)
	assert.Equal(t, []domain.Category{domain.CategoryComputer, domain.CategoryFurniture}, groups[0].Categories)
	assert.Equal(t, 2, groups[0].AssetCount)
	assert.Equal(t, domain.ID(8), groups[1].ResponsibleID)
	assert.False(t, groups[2].Active, "voided groups go last")
	assert.Equal(t, domain.ID(62), groups[2].Records[0].ID)

	groups, err = svc.ListGroups(context.Background(), KindAssignment, GroupFilter{Text: "maria"})
	require.NoError(t, err)
	assert.Len(t, groups, 2)

	groups, err = svc.ListGroups(context.Background(), KindAssignment, GroupFilter{Text: "e-ec-2026-002"})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Luis Vera", groups[0].ResponsibleName)

	groups, err = svc.ListGroups(context.Background(), KindAssignment, GroupFilter{Category: domain.CategoryFurniture, ResponsibleID: 7})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, domain.ID(61), groups[0].Records[0].ID)
}
