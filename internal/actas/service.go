// Package actas lists the custody certificates rendered upstream and
// attaches their signed PDFs.
package actas

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/apierr"
	"EPESPO-inventario/internal/platform/backend"
	"EPESPO-inventario/internal/textnorm"
	"EPESPO-inventario/internal/validation"
)

// MaxPDFSize is the largest signed PDF accepted.
const MaxPDFSize = 10 << 20

const fieldPDF = "pdf"

type Upstream interface {
	Actas(ctx context.Context) ([]domain.Acta, error)
	GenerateAssignmentActa(ctx context.Context, assignmentID domain.ID) (domain.Acta, error)
	GenerateReceptionActa(ctx context.Context, receptionID domain.ID) (domain.Acta, error)
	UploadActaPDF(ctx context.Context, id domain.ID, filename string, content io.Reader) (backend.UploadResult, error)
}

type Service struct {
	up  Upstream
	log logrus.FieldLogger
}

func NewService(up Upstream, log logrus.FieldLogger) *Service {
	return &Service{up: up, log: log}
}

// View is an acta as listed, with its derived columns.
type View struct {
	domain.Acta
	Type            domain.ActaType `json:"tipo"`
	Voided          bool            `json:"anulada"`
	ResponsibleName string          `json:"responsable_nombre"`
}

func newView(a domain.Acta) View {
	return View{Acta: a, Type: a.Type(), Voided: a.Voided(), ResponsibleName: a.ResponsibleName()}
}

// Filter values are compared against fecha_creacion as strings, so From and
// To are expected as YYYY-MM-DD.
type Filter struct {
	Text        string
	Responsible string
	Type        domain.ActaType
	From        string
	To          string
}

func (f Filter) match(v View) bool {
	if q := textnorm.Key(f.Text); q != "" {
		hay := []string{v.ResponsibleName, v.CreatedOn, v.Code, string(v.Type)}
		found := false
		for _, h := range hay {
			if strings.Contains(textnorm.Key(h), q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Responsible != "" && v.ResponsibleName != f.Responsible {
		return false
	}
	if f.Type != "" && v.Type != f.Type {
		return false
	}
	if f.From != "" && v.CreatedOn < f.From {
		return false
	}
	// a timestamp on the To day still counts
	if f.To != "" && v.CreatedOn > f.To && !strings.HasPrefix(v.CreatedOn, f.To) {
		return false
	}
	return true
}

// List filters the actas and moves voided ones to the end, keeping the
// upstream order otherwise.
func (s *Service) List(ctx context.Context, f Filter) ([]View, error) {
	list, err := s.up.Actas(ctx)
	if err != nil {
		return nil, backend.AsAPIError(err)
	}
	out := make([]View, 0, len(list))
	for _, a := range list {
		if v := newView(a); f.match(v) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return !out[i].Voided && out[j].Voided })
	return out, nil
}

func (s *Service) GenerateForAssignment(ctx context.Context, assignmentID domain.ID) (View, error) {
	if !assignmentID.Valid() {
		return View{}, apierr.Validation(validation.Errors{"asignacion_id": "Debe indicar la asignación"})
	}
	a, err := s.up.GenerateAssignmentActa(ctx, assignmentID)
	if err != nil {
		s.log.WithError(err).WithField("asignacion_id", assignmentID).Warn("acta generation rejected")
		return View{}, backend.AsAPIError(err)
	}
	return newView(a), nil
}

func (s *Service) GenerateForReception(ctx context.Context, receptionID domain.ID) (View, error) {
	if !receptionID.Valid() {
		return View{}, apierr.Validation(validation.Errors{"recepcion_id": "Debe indicar la recepción"})
	}
	a, err := s.up.GenerateReceptionActa(ctx, receptionID)
	if err != nil {
		s.log.WithError(err).WithField("recepcion_id", receptionID).Warn("reception acta generation rejected")
		return View{}, backend.AsAPIError(err)
	}
	return newView(a), nil
}

// ValidatePDF checks a signed-acta upload before it is sent. filename may be
// empty only when no file was chosen.
func ValidatePDF(filename, contentType string, size int64) string {
	if filename == "" {
		return "Selecciona un archivo primero."
	}
	isPDF := strings.EqualFold(strings.TrimSpace(contentType), "application/pdf") ||
		strings.EqualFold(filepath.Ext(filename), ".pdf")
	if !isPDF {
		return "El archivo debe ser PDF (.pdf)."
	}
	if size > MaxPDFSize {
		return "El PDF supera el límite de 10MB."
	}
	return ""
}

const msgUploadFailed = "No se pudo subir el PDF (ruta backend o error del servidor)."

// UploadSignedPDF attaches the signed PDF to an acta that is not voided.
func (s *Service) UploadSignedPDF(ctx context.Context, id domain.ID, filename, contentType string, size int64, body io.Reader) (backend.UploadResult, error) {
	if msg := ValidatePDF(filename, contentType, size); msg != "" {
		return backend.UploadResult{}, apierr.Validation(validation.Errors{fieldPDF: msg})
	}

	list, err := s.up.Actas(ctx)
	if err != nil {
		return backend.UploadResult{}, backend.AsAPIError(err)
	}
	var acta *domain.Acta
	for i := range list {
		if list[i].ID == id {
			acta = &list[i]
			break
		}
	}
	if acta == nil {
		return backend.UploadResult{}, apierr.NotFound("Acta no encontrada")
	}
	if acta.Voided() {
		return backend.UploadResult{}, apierr.Conflict("El acta está anulada; no se puede subir el PDF.")
	}

	res, err := s.up.UploadActaPDF(ctx, id, filepath.Base(filename), io.LimitReader(body, MaxPDFSize+1))
	if err != nil {
		s.log.WithError(err).WithField("acta_id", id).Warn("signed pdf upload rejected")
		var re *backend.RemoteError
		if errors.As(err, &re) && re.Message == "" && len(re.Errors) == 0 {
			return backend.UploadResult{}, apierr.Unavailable(msgUploadFailed)
		}
		return backend.UploadResult{}, backend.AsAPIError(err)
	}
	if res.Path == "" {
		res.Path = "ok"
	}
	s.log.WithFields(logrus.Fields{"acta_id": id, "codigo": acta.Code}).Info("signed pdf attached")
	return res, nil
}
