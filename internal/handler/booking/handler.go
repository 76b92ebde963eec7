package booking

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/glowclinic/booking-api/internal/middleware"
	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/internal/service/booking"
	apperrors "github.com/glowclinic/booking-api/pkg/errors"
	"github.com/glowclinic/booking-api/pkg/httputil"
)

type Handler struct {
	service *booking.Service
}

func NewHandler(service *booking.Service) *Handler {
	return &Handler{service: service}
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("invalid credentials"))
	}
	return id, ok
}

func bookingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid booking ID"))
		return uuid.Nil, false
	}
	return id, true
}

func pagination(c *gin.Context) model.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return model.Pagination{Page: page, PageSize: pageSize}
}

func (h *Handler) CreateBooking(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationErrors(c, "invalid request payload", err.Error())
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, "booking confirmed", b)
}

func (h *Handler) GetBooking(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	b, err := h.service.GetBooking(c.Request.Context(), userID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "", b)
}

func (h *Handler) ListBookings(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	p := pagination(c)
	bookings, total, err := h.service.ListUserBookings(c.Request.Context(), userID, p)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p.Normalize()
	httputil.RespondWithPagination(c, bookings, p.Page, p.PageSize, total)
}

func (h *Handler) CheckIn(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	resp, err := h.service.CheckIn(c.Request.Context(), userID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "checked in", resp)
}

func (h *Handler) SelfCheckout(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	b, err := h.service.SelfCheckout(c.Request.Context(), userID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "checked out", b)
}

func (h *Handler) Reschedule(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req model.RescheduleBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationErrors(c, "invalid request payload", err.Error())
		return
	}

	b, err := h.service.Reschedule(c.Request.Context(), userID, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "booking rescheduled", b)
}

// UpdateStatus handles customer-initiated status changes. Cancellation is the
// only transition a customer may request directly; everything else moves
// through the dedicated check-in and checkout endpoints.
func (h *Handler) UpdateStatus(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req model.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationErrors(c, "invalid request payload", err.Error())
		return
	}

	if req.Status != model.BookingStatusCancelled {
		httputil.RespondWithError(c, apperrors.Validationf("status %q cannot be set directly", req.Status))
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), userID, id, req.CancellationReason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "booking cancelled", b)
}

func (h *Handler) Rate(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req model.RateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationErrors(c, "invalid request payload", err.Error())
		return
	}

	b, err := h.service.Rate(c.Request.Context(), userID, id, req.Rating, req.Feedback)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "thank you for your feedback", b)
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), userID, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "booking deleted", nil)
}

func (h *Handler) GetDayAvailability(c *gin.Context) {
	date := c.Param("date")
	location := c.Query("location")
	if location == "" {
		httputil.RespondWithError(c, apperrors.Validation("location is required"))
		return
	}

	result, err := h.service.GetDayAvailability(c.Request.Context(), date, location)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "", result)
}

func (h *Handler) GetMonthAvailability(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid year"))
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid month"))
		return
	}
	location := c.Query("location")
	if location == "" {
		httputil.RespondWithError(c, apperrors.Validation("location is required"))
		return
	}

	result, err := h.service.GetMonthAvailability(c.Request.Context(), year, month, location)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "", result)
}

// RegisterPublicRoutes mounts the unauthenticated availability endpoints.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	availability := r.Group("/bookings/availability")
	{
		availability.GET("/:date", h.GetDayAvailability)
		availability.GET("/calendar/:year/:month", h.GetMonthAvailability)
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.DELETE("/:id", h.DeleteBooking)
		bookings.POST("/:id/checkin", h.CheckIn)
		bookings.POST("/:id/user-checkout", h.SelfCheckout)
		bookings.PATCH("/:id/reschedule", h.Reschedule)
		bookings.PATCH("/:id/status", h.UpdateStatus)
		bookings.POST("/:id/rating", h.Rate)
	}
}
