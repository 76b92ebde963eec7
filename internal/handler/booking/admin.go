package booking

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/glowclinic/booking-api/internal/model"
	apperrors "github.com/glowclinic/booking-api/pkg/errors"
	"github.com/glowclinic/booking-api/pkg/httputil"
)

// ListAllBookings is the staff view across all customers, filterable by
// status, location and appointment date range.
func (h *Handler) ListAllBookings(c *gin.Context) {
	filters := &model.BookingFilters{
		Status:   model.BookingStatus(c.Query("status")),
		Location: c.Query("location"),
	}

	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid start_date: expected YYYY-MM-DD"))
			return
		}
		filters.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid end_date: expected YYYY-MM-DD"))
			return
		}
		filters.EndDate = &t
	}

	p := pagination(c)
	bookings, total, err := h.service.ListBookings(c.Request.Context(), filters, p)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p.Normalize()
	httputil.RespondWithPagination(c, bookings, p.Page, p.PageSize, total)
}

// StaffCheckout completes a booking at the desk against the customer's
// checkout code.
func (h *Handler) StaffCheckout(c *gin.Context) {
	adminID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req model.StaffCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationErrors(c, "invalid request payload", err.Error())
		return
	}

	b, err := h.service.StaffCheckout(c.Request.Context(), id, req.OTP, adminID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "checked out", b)
}

// MarkNoShows runs the no-show sweep on demand. The worker runs the same
// sweep on a schedule; this endpoint exists for the front desk.
func (h *Handler) MarkNoShows(c *gin.Context) {
	marked, err := h.service.MarkNoShows(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, "sweep complete", gin.H{"marked": marked})
}

// RegisterStaffRoutes mounts the desk operations on the booking paths their
// clients already use. The group carries the staff-role middleware.
func (h *Handler) RegisterStaffRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.POST("/:id/checkout", h.StaffCheckout)
		bookings.POST("/mark-no-shows", h.MarkNoShows)
	}
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/bookings", h.ListAllBookings)
}
