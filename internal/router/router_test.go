package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	authhandler "github.com/glowclinic/booking-api/internal/handler/auth"
	bookinghandler "github.com/glowclinic/booking-api/internal/handler/booking"
	healthhandler "github.com/glowclinic/booking-api/internal/handler/health"
	orderhandler "github.com/glowclinic/booking-api/internal/handler/order"
	treatmenthandler "github.com/glowclinic/booking-api/internal/handler/treatment"
	"github.com/glowclinic/booking-api/internal/middleware"
)

// Route registration never invokes the handlers, so nil services are fine here.
func newTestRouter(t *testing.T) *Router {
	t.Helper()

	r := New(
		middleware.NewAuthMiddleware(nil),
		authhandler.NewHandler(nil),
		bookinghandler.NewHandler(nil),
		treatmenthandler.NewHandler(nil),
		orderhandler.NewHandler(nil),
		healthhandler.NewHandler(nil),
		Config{
			RateLimit: rate.Limit(100),
			RateBurst: 200,
		},
	)
	r.Setup()
	return r
}

func TestSetupRegistersBookingSurface(t *testing.T) {
	r := newTestRouter(t)

	registered := make(map[string]bool)
	for _, route := range r.Engine().Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	want := []string{
		"GET /api/v1/bookings/availability/:date",
		"GET /api/v1/bookings/availability/calendar/:year/:month",
		"POST /api/v1/bookings",
		"GET /api/v1/bookings",
		"GET /api/v1/bookings/:id",
		"DELETE /api/v1/bookings/:id",
		"POST /api/v1/bookings/:id/checkin",
		"POST /api/v1/bookings/:id/user-checkout",
		"PATCH /api/v1/bookings/:id/reschedule",
		"PATCH /api/v1/bookings/:id/status",
		"POST /api/v1/bookings/:id/rating",
		"POST /api/v1/bookings/:id/checkout",
		"POST /api/v1/bookings/mark-no-shows",
		"GET /api/v1/admin/bookings",
	}
	for _, route := range want {
		assert.True(t, registered[route], "missing route %s", route)
	}

	require.NotContains(t, registered, "POST /api/v1/admin/bookings/:id/checkout")
	require.NotContains(t, registered, "POST /api/v1/admin/bookings/mark-no-shows")
}
