package asignaciones

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/db"
)

const (
	tableSagas = "custody_sagas"
	tableSteps = "custody_saga_steps"
)

type sagaRow struct {
	ID            string    `db:"id"`
	Kind          string    `db:"kind"`
	ResponsibleID int64     `db:"responsable_id"`
	DepartmentID  int64     `db:"area_id"`
	Date          string    `db:"fecha"`
	Status        string    `db:"status"`
	ActaRequested bool      `db:"acta_requested"`
	CreatedBy     int64     `db:"created_by"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type stepRow struct {
	ID        string         `db:"id"`
	SagaID    string         `db:"saga_id"`
	Position  int            `db:"position"`
	Category  string         `db:"categoria"`
	Assets    string         `db:"productos"`
	Status    string         `db:"status"`
	RecordID  sql.NullInt64  `db:"record_id"`
	Error     sql.NullString `db:"error_message"`
	Attempts  int            `db:"attempts"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// MySQLJournal stores sagas in custody_sagas / custody_saga_steps.
// The DSN must set parseTime=true.
type MySQLJournal struct {
	db *goqu.Database
}

func NewMySQLJournal(gdb *goqu.Database) *MySQLJournal {
	return &MySQLJournal{db: gdb}
}

func (j *MySQLJournal) Create(ctx context.Context, s *Saga) error {
	steps := make([]any, 0, len(s.Steps))
	for _, st := range s.Steps {
		rec, err := stepRecord(st)
		if err != nil {
			return err
		}
		rec["id"] = st.ID
		rec["saga_id"] = s.ID
		rec["position"] = st.Position
		rec["categoria"] = string(st.Category)
		steps = append(steps, rec)
	}

	return db.RunInTx(ctx, j.db, nil, func(tx *goqu.TxDatabase) error {
		_, err := tx.Insert(tableSagas).Rows(goqu.Record{
			"id":             s.ID,
			"kind":           string(s.Kind),
			"responsable_id": int64(s.ResponsibleID),
			"area_id":        int64(s.DepartmentID),
			"fecha":          s.Date,
			"status":         string(s.Status),
			"acta_requested": s.ActaRequested,
			"created_by":     int64(s.CreatedBy),
			"created_at":     s.CreatedAt,
			"updated_at":     s.UpdatedAt,
		}).Executor().ExecContext(ctx)
		if db.IsDuplicateKey(err) {
			return ErrSagaExists
		}
		if err != nil {
			return fmt.Errorf("insert saga: %w", err)
		}
		if len(steps) == 0 {
			return nil
		}
		if _, err := tx.Insert(tableSteps).Rows(steps...).Executor().ExecContext(ctx); err != nil {
			return fmt.Errorf("insert saga steps: %w", err)
		}
		return nil
	})
}

func (j *MySQLJournal) Get(ctx context.Context, id string) (*Saga, error) {
	var row sagaRow
	found, err := j.db.From(tableSagas).Where(goqu.C("id").Eq(id)).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("select saga: %w", err)
	}
	if !found {
		return nil, ErrSagaNotFound
	}
	byID, err := j.steps(ctx, id)
	if err != nil {
		return nil, err
	}
	s := row.saga()
	s.Steps = byID[id]
	return &s, nil
}

func (j *MySQLJournal) RecordStep(ctx context.Context, st Step) error {
	rec, err := stepRecord(st)
	if err != nil {
		return err
	}
	return db.RunInTx(ctx, j.db, nil, func(tx *goqu.TxDatabase) error {
		res, err := tx.Update(tableSteps).Set(rec).Where(stepKey(st)).
			Executor().ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("update saga step: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// MySQL reports 0 when the values did not change
			found, err := stepQuery(tx, st).CountContext(ctx)
			if err != nil {
				return fmt.Errorf("count saga step: %w", err)
			}
			if found == 0 {
				return ErrSagaNotFound
			}
		}
		_, err = tx.Update(tableSagas).Set(goqu.Record{"updated_at": st.UpdatedAt}).
			Where(goqu.C("id").Eq(st.SagaID)).Executor().ExecContext(ctx)
		return err
	})
}

type selector interface {
	From(from ...interface{}) *goqu.SelectDataset
}

func stepKey(st Step) goqu.Ex {
	return goqu.Ex{"id": st.ID, "saga_id": st.SagaID}
}

// stepQuery selects one step row; it works on a pool or inside a tx.
func stepQuery(q selector, st Step) *goqu.SelectDataset {
	return q.From(tableSteps).Where(stepKey(st))
}

func (j *MySQLJournal) SetStatus(ctx context.Context, sagaID string, status SagaStatus, at time.Time) error {
	res, err := j.db.Update(tableSagas).
		Set(goqu.Record{"status": string(status), "updated_at": at}).
		Where(goqu.C("id").Eq(sagaID)).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update saga status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 when the values did not change
		if _, err := j.Get(ctx, sagaID); err != nil {
			return err
		}
	}
	return nil
}

func (j *MySQLJournal) ListOpen(ctx context.Context, kind Kind, limit int) ([]Saga, error) {
	var rows []sagaRow
	if err := openSagasQuery(j.db, kind, limit).Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("select open sagas: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	byID, err := j.steps(ctx, ids...)
	if err != nil {
		return nil, err
	}
	out := make([]Saga, 0, len(rows))
	for _, r := range rows {
		s := r.saga()
		s.Steps = byID[r.ID]
		out = append(out, s)
	}
	return out, nil
}

func openSagasQuery(gdb *goqu.Database, kind Kind, limit int) *goqu.SelectDataset {
	ds := gdb.From(tableSagas).
		Where(goqu.C("kind").Eq(string(kind)), goqu.C("status").Neq(string(SagaCompleted))).
		Order(goqu.C("id").Desc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	return ds
}

func (j *MySQLJournal) steps(ctx context.Context, sagaIDs ...string) (map[string][]Step, error) {
	var rows []stepRow
	err := j.db.From(tableSteps).
		Where(goqu.C("saga_id").In(sagaIDs)).
		Order(goqu.C("saga_id").Asc(), goqu.C("position").Asc()).
		Executor().ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("select saga steps: %w", err)
	}
	out := make(map[string][]Step, len(sagaIDs))
	for _, r := range rows {
		st, err := r.step()
		if err != nil {
			return nil, err
		}
		out[r.SagaID] = append(out[r.SagaID], st)
	}
	return out, nil
}

// stepRecord holds the mutable columns of a step.
func stepRecord(st Step) (goqu.Record, error) {
	assets, err := json.Marshal(st.Assets)
	if err != nil {
		return nil, fmt.Errorf("encode step assets: %w", err)
	}
	rec := goqu.Record{
		"productos":     string(assets),
		"status":        string(st.Status),
		"record_id":     sql.NullInt64{Int64: int64(st.RecordID), Valid: st.RecordID.Valid()},
		"error_message": sql.NullString{String: st.Error, Valid: st.Error != ""},
		"attempts":      st.Attempts,
		"updated_at":    st.UpdatedAt,
	}
	return rec, nil
}

func (r sagaRow) saga() Saga {
	return Saga{
		ID:            r.ID,
		Kind:          Kind(r.Kind),
		ResponsibleID: domain.ID(r.ResponsibleID),
		DepartmentID:  domain.ID(r.DepartmentID),
		Date:          r.Date,
		Status:        SagaStatus(r.Status),
		ActaRequested: r.ActaRequested,
		CreatedBy:     domain.ID(r.CreatedBy),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (r stepRow) step() (Step, error) {
	var assets []domain.ID
	if err := json.Unmarshal([]byte(r.Assets), &assets); err != nil {
		return Step{}, fmt.Errorf("decode step %s assets: %w", r.ID, err)
	}
	return Step{
		ID:        r.ID,
		SagaID:    r.SagaID,
		Position:  r.Position,
		Category:  domain.Category(r.Category),
		Assets:    assets,
		Status:    StepStatus(r.Status),
		RecordID:  domain.ID(r.RecordID.Int64),
		Error:     r.Error.String,
		Attempts:  r.Attempts,
		UpdatedAt: r.UpdatedAt,
	}, nil
}
