package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"EPESPO-inventario/internal/platform/apierr"
	"EPESPO-inventario/internal/usuarios"
)

type Handler struct{ svc *Service }

// RegisterRoutes mounts the session endpoints. authed must run
// RequireSession.
func RegisterRoutes(r, authed gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/login", h.Login)
	r.POST("/forgot-password", h.ForgotPassword)
	r.POST("/reset-password", h.ResetPassword)
	r.GET("/session", h.Current)
	authed.POST("/logout", h.Logout)
}

type LoginRequest struct {
	Email    string `json:"correo"`
	Password string `json:"contrasena"`
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "Invalid request"))
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   res.Token,
		"user":    res.User,
		"message": "Inicio de sesión exitoso",
	})
}

func (h *Handler) Logout(c *gin.Context) {
	msg := h.svc.Logout(c.Request.Context(), c.GetString(CtxTokenKey))
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"correo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "Invalid request"))
		return
	}
	if err := h.svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Te enviamos un código. Revisa tu correo."})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req usuarios.PasswordReset
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "Invalid request"))
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), req); err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contraseña actualizada correctamente"})
}

// Current reports whether the caller's bearer token is a live session.
func (h *Handler) Current(c *gin.Context) {
	user, ok := h.svc.Current(BearerToken(c))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"activa": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"activa": true, "user": user})
}
