package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/glowclinic/booking-api/internal/middleware"
	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/internal/service/auth"
	apperrors "github.com/glowclinic/booking-api/pkg/errors"
	"github.com/glowclinic/booking-api/pkg/httputil"
)

type Handler struct {
	service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationErrors(c, "invalid request payload", err.Error())
		return
	}

	u, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, "account created", u)
}

func (h *Handler) RequestOTP(c *gin.Context) {
	var req model.RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationErrors(c, "invalid request payload", err.Error())
		return
	}

	if err := h.service.RequestOTP(c.Request.Context(), req.Email); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "a login code has been sent to your email", nil)
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	var req model.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationErrors(c, "invalid request payload", err.Error())
		return
	}

	token, u, err := h.service.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "login successful", gin.H{
		"token": token,
		"user":  u,
	})
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var req model.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationErrors(c, "invalid request payload", err.Error())
		return
	}

	token, a, err := h.service.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "login successful", gin.H{
		"token": token,
		"admin": a,
	})
}

func (h *Handler) Profile(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("invalid credentials"))
		return
	}

	u, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "", u)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/otp/request", h.RequestOTP)
		authGroup.POST("/otp/verify", h.VerifyOTP)
		authGroup.POST("/admin/login", h.AdminLogin)
	}
}

// RegisterProtectedRoutes mounts the endpoints that need a valid token.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.GET("/profile", h.Profile)
}
