package actas

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/apierr"
	"EPESPO-inventario/internal/platform/paging"
	"EPESPO-inventario/internal/validation"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r, admin gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/actas", h.List)
	admin.POST("/actas/generar", h.GenerateForAssignment)
	admin.POST("/actas/generar-recepcion", h.GenerateForReception)
	admin.POST("/actas/:id/subir-pdf", h.UploadSignedPDF)
}

func (h *Handler) List(c *gin.Context) {
	f := Filter{
		Text:        c.Query("q"),
		Responsible: c.Query("responsable"),
		Type:        domain.ActaType(c.Query("tipo")),
		From:        c.Query("desde"),
		To:          c.Query("hasta"),
	}
	items, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, paging.Apply(items, paging.FromQuery(c)))
}

type GenerateRequest struct {
	AssignmentID domain.ID `json:"asignacion_id"`
	ReceptionID  domain.ID `json:"recepcion_id"`
}

func (h *Handler) GenerateForAssignment(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.GenerateForAssignment(c.Request.Context(), req.AssignmentID)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) GenerateForReception(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.GenerateForReception(c.Request.Context(), req.ReceptionID)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

// UploadSignedPDF takes the multipart field "pdf".
func (h *Handler) UploadSignedPDF(c *gin.Context) {
	fh, err := c.FormFile(fieldPDF)
	if err != nil {
		verr := apierr.Validation(validation.Errors{fieldPDF: ValidatePDF("", "", 0)})
		c.JSON(apierr.ToHTTPStatus(verr), apierr.FromErr(verr))
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "no se pudo leer el archivo"))
		return
	}
	defer f.Close()

	res, err := h.svc.UploadSignedPDF(c.Request.Context(), domain.ParseID(c.Param("id")),
		fh.Filename, fh.Header.Get("Content-Type"), fh.Size, f)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}
