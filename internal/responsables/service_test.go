package responsables

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/apierr"
	"EPESPO-inventario/internal/platform/backend"
	"EPESPO-inventario/internal/platform/logger"
	"EPESPO-inventario/internal/platform/refcache"
)

type fakeUpstream struct {
	list    []domain.Responsible
	lists   int
	created []domain.ResponsibleDraft
	err     error
}

func (f *fakeUpstream) Responsibles(context.Context) ([]domain.Responsible, error) {
	f.lists++
	return f.list, nil
}

func (f *fakeUpstream) CreateResponsible(_ context.Context, d domain.ResponsibleDraft) (domain.Responsible, error) {
	if f.err != nil {
		return domain.Responsible{}, f.err
	}
	f.created = append(f.created, d)
	r := domain.Responsible{ID: domain.ID(len(f.list) + 1), FirstName: d.FirstName, LastName: d.LastName, NationalID: d.NationalID, Email: d.Email}
	f.list = append(f.list, r)
	return r, nil
}

func (f *fakeUpstream) UpdateResponsible(_ context.Context, id domain.ID, d domain.ResponsibleDraft) (domain.Responsible, error) {
	return domain.Responsible{ID: id, FirstName: d.FirstName}, f.err
}

func (f *fakeUpstream) DeleteResponsible(context.Context, domain.ID) error { return f.err }

func draft() domain.ResponsibleDraft {
	return domain.ResponsibleDraft{
		Title: "Ing.", FirstName: "  María  José ", LastName: "Pérez",
		Email: "MJ.Perez@epespo.edu.ec", NationalID: "0926687856", JobTitle: "Analista",
	}
}

func newTestService(up *fakeUpstream) *Service {
	return NewService(up, refcache.New(time.Minute, time.Minute), logger.Discard())
}

func TestCreateNormalizesAndInvalidates(t *testing.T) {
	up := &fakeUpstream{list: []domain.Responsible{{ID: 1, FirstName: "Luis", LastName: "Andrade", NationalID: "1710034065", Email: "luis@epespo.edu.ec"}}}
	svc := newTestService(up)

	_, err := svc.List(context.Background(), "")
	require.NoError(t, err)

	r, err := svc.Create(context.Background(), draft())
	require.NoError(t, err)
	assert.Equal(t, domain.ID(2), r.ID)
	require.Len(t, up.created, 1)
	assert.Equal(t, "María José", up.created[0].FirstName)
	assert.Equal(t, "mj.perez@epespo.edu.ec", up.created[0].Email)

	list, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCreateDuplicateCedula(t *testing.T) {
	up := &fakeUpstream{list: []domain.Responsible{{ID: 1, NationalID: "0926687856", Email: "otro@epespo.edu.ec"}}}
	svc := newTestService(up)

	_, err := svc.Create(context.Background(), draft())
	var verr *apierr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Ya existe un responsable con esta cédula", verr.Errors["cedula"])
	assert.Empty(t, up.created)
}

func TestUpdateKeepsOwnCedula(t *testing.T) {
	up := &fakeUpstream{list: []domain.Responsible{{ID: 4, NationalID: "0926687856", Email: "mj.perez@epespo.edu.ec"}}}
	svc := newTestService(up)

	_, err := svc.Update(context.Background(), 4, draft())
	assert.NoError(t, err)
}

func TestCreateUpstreamRejection(t *testing.T) {
	up := &fakeUpstream{err: &backend.RemoteError{Status: 422, Message: "The cedula has already been taken."}}
	svc := newTestService(up)

	_, err := svc.Create(context.Background(), draft())
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apierr.ToHTTPStatus(err))
	assert.Contains(t, err.Error(), "The cedula has already been taken.")
}

func TestListFilterAndOrder(t *testing.T) {
	up := &fakeUpstream{list: []domain.Responsible{
		{ID: 1, FirstName: "Zoila", LastName: "Vera", JobTitle: "Docente"},
		{ID: 2, FirstName: "Álvaro", LastName: "Mora", JobTitle: "Contador"},
		{ID: 3, FirstName: "Bruno", LastName: "Díaz", JobTitle: "Docente"},
	}}
	svc := newTestService(up)

	list, err := svc.List(context.Background(), "docente")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.ID(3), list[0].ID)

	list, err = svc.List(context.Background(), "alvaro")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.ID(2), list[0].ID)
	assert.Equal(t, 1, up.lists)
}

func TestGetMissing(t *testing.T) {
	svc := newTestService(&fakeUpstream{})
	_, err := svc.Get(context.Background(), 9)
	assert.Equal(t, http.StatusNotFound, apierr.ToHTTPStatus(err))
}
