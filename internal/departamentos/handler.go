package departamentos

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/apierr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r, admin gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/departamentos", h.List)
	r.GET("/departamentos/nombres", h.Names)
	admin.POST("/departamentos", h.Create)
	admin.PUT("/departamentos/:id", h.Update)
	admin.DELETE("/departamentos/:id", h.Delete)
}

func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, items)
}

// Names lists the department names the form may offer.
func (h *Handler) Names(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.AllowedNames())
}

func (h *Handler) Create(c *gin.Context) {
	var req domain.DepartmentDraft
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Update(c *gin.Context) {
	var req domain.DepartmentDraft
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.Update(c.Request.Context(), domain.ParseID(c.Param("id")), req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), domain.ParseID(c.Param("id"))); err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.Status(http.StatusNoContent)
}
