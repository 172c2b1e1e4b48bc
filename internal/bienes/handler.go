package bienes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/apierr"
	"EPESPO-inventario/internal/platform/paging"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r, admin gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/bienes", h.List)
	r.GET("/bienes/disponibles", h.Available)
	r.GET("/bienes/:id", h.Get)
	r.GET("/responsables/:id/bienes-actuales", h.Holdings)
	admin.POST("/bienes", h.Create)
	admin.PUT("/bienes/:id", h.Update)
	admin.POST("/bienes/:id/baja", h.Deactivate)
}

func (h *Handler) List(c *gin.Context) {
	f := Filter{
		Text:     c.Query("q"),
		Category: domain.Category(c.Query("categoria")),
		State:    domain.AssetState(c.Query("estado")),
	}
	items, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, paging.Apply(items, paging.FromQuery(c)))
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), domain.ParseID(c.Param("id")))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Available(c *gin.Context) {
	sel, err := h.svc.Available(c.Request.Context())
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, sel)
}

func (h *Handler) Holdings(c *gin.Context) {
	res, err := h.svc.Holdings(c.Request.Context(), domain.ParseID(c.Param("id")))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Create(c *gin.Context) {
	var req domain.AssetDraft
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.Header("Location", "/bienes/"+res.ID.String())
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Update(c *gin.Context) {
	var req domain.AssetDraft
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

type DeactivateRequest struct {
	Reason string `json:"motivo_baja"`
}

func (h *Handler) Deactivate(c *gin.Context) {
	var req DeactivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.Deactivate(c.Request.Context(), domain.ParseID(c.Param("id")), req.Reason)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}
