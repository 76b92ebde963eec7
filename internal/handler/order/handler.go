package order

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/glowclinic/booking-api/internal/middleware"
	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/internal/service/order"
	apperrors "github.com/glowclinic/booking-api/pkg/errors"
	"github.com/glowclinic/booking-api/pkg/httputil"
)

type Handler struct {
	service *order.Service
}

func NewHandler(service *order.Service) *Handler {
	return &Handler{service: service}
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("invalid credentials"))
	}
	return id, ok
}

func (h *Handler) CreateOrder(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req model.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationErrors(c, "invalid request payload", err.Error())
		return
	}

	o, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, "order placed", o)
}

func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid order ID"))
		return
	}

	o, err := h.service.Get(c.Request.Context(), userID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "", o)
}

func (h *Handler) ListOrders(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	p := model.Pagination{Page: page, PageSize: pageSize}

	orders, total, err := h.service.ListByUser(c.Request.Context(), userID, p)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p.Normalize()
	httputil.RespondWithPagination(c, orders, p.Page, p.PageSize, total)
}

// UpdateStatus is the staff endpoint for moving an order through fulfilment.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid order ID"))
		return
	}

	var req model.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationErrors(c, "invalid request payload", err.Error())
		return
	}

	o, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "order updated", o)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
	}
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders")
	{
		orders.PATCH("/:id/status", h.UpdateStatus)
	}
}
