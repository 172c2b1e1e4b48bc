package asignaciones

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/apierr"
	"EPESPO-inventario/internal/platform/auth"
	"EPESPO-inventario/internal/platform/paging"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r, admin gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/asignaciones", h.listGroups(KindAssignment))
	r.GET("/recepciones", h.listGroups(KindReception))
	r.GET("/operaciones", h.OpenSagas)
	r.GET("/operaciones/:id", h.Saga)

	admin.POST("/asignaciones", h.SubmitAssignment)
	admin.PUT("/asignaciones/:id", h.UpdateAssignment)
	admin.POST("/asignaciones/:id/anular", h.void(KindAssignment))
	admin.POST("/recepciones", h.SubmitReception)
	admin.PUT("/recepciones/:id", h.UpdateReception)
	admin.POST("/recepciones/:id/anular", h.void(KindReception))
	admin.POST("/operaciones/:id/reintentar", h.Retry)
}

// outcomeStatus is 201 when everything was created, 207 when some steps
// failed after others succeeded, 502 when nothing went through.
func outcomeStatus(o Outcome) int {
	switch o.Status {
	case SagaCompleted:
		return http.StatusCreated
	case SagaPartial:
		return http.StatusMultiStatus
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) SubmitAssignment(c *gin.Context) {
	var req AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	out, err := h.svc.SubmitAssignment(c.Request.Context(), req, auth.UserID(c))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(outcomeStatus(out), out)
}

func (h *Handler) SubmitReception(c *gin.Context) {
	var req ReceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	out, err := h.svc.SubmitReception(c.Request.Context(), req, auth.UserID(c))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(outcomeStatus(out), out)
}

func (h *Handler) UpdateAssignment(c *gin.Context) {
	var req AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	out, err := h.svc.UpdateAssignment(c.Request.Context(), domain.ParseID(c.Param("id")), req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) UpdateReception(c *gin.Context) {
	var req ReceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	out, err := h.svc.UpdateReception(c.Request.Context(), domain.ParseID(c.Param("id")), req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, out)
}

type VoidRequest struct {
	Reason string `json:"motivo_anulacion"`
	Scope  Scope  `json:"alcance"`
}

func (h *Handler) void(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VoidRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
				return
			}
		}
		switch req.Scope {
		case "":
			req.Scope = ScopeRecord
		case ScopeRecord, ScopeGroup:
		default:
			c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "alcance debe ser registro o grupo"))
			return
		}
		out, err := h.svc.Void(c.Request.Context(), kind, domain.ParseID(c.Param("id")), req.Reason, req.Scope)
		if err != nil {
			c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func (h *Handler) listGroups(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := GroupFilter{
			Text:          c.Query("q"),
			Category:      domain.Category(c.Query("categoria")),
			ResponsibleID: domain.ParseID(c.Query("responsable_id")),
		}
		groups, err := h.svc.ListGroups(c.Request.Context(), kind, f)
		if err != nil {
			c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
			return
		}
		c.JSON(http.StatusOK, paging.Apply(groups, paging.FromQuery(c)))
	}
}

func (h *Handler) OpenSagas(c *gin.Context) {
	kind := Kind(c.DefaultQuery("tipo", string(KindAssignment)))
	if kind != KindAssignment && kind != KindReception {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "tipo debe ser asignacion o recepcion"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	list, err := h.svc.OpenSagas(c.Request.Context(), kind, limit)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

func (h *Handler) Saga(c *gin.Context) {
	saga, err := h.svc.Saga(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, saga)
}

func (h *Handler) Retry(c *gin.Context) {
	out, err := h.svc.RetrySaga(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(outcomeStatus(out), out)
}
