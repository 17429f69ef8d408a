package router

import (
	"github.com/labstack/echo/v4"

	"github.com/minhtran/spa-booking/internal/handler"
	"github.com/minhtran/spa-booking/internal/middleware"
)

// RegisterBookings registers booking endpoints under /v1.  All routes
// require a valid JWT; role checks beyond that live in the handlers,
// which scope customers to their own bookings and let staff and admins
// see more.  The optional limiter middleware throttles the mutating
// endpoints so a misbehaving client cannot hammer the conflict checker;
// pass nil to disable (e.g. in tests).
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN", "STAFF", "CUSTOMER"),
	)

	writeMW := []echo.MiddlewareFunc{}
	if limiter != nil {
		writeMW = append(writeMW, limiter)
	}

	// ---- Booking lifecycle ----
	g.POST("/bookings", h.Create, writeMW...)
	g.PATCH("/bookings/:id/status", h.UpdateStatus, writeMW...)
	g.PATCH("/bookings/:id/schedule", h.Reschedule, writeMW...)
	g.GET("/bookings/:id", h.Get)

	// ---- Listings ----
	g.GET("/my-bookings", h.MyBookings)

	// ---- Availability probe ----
	// Read-only preview of the same conflict check booking creation runs.
	// The answer can go stale the moment it is returned, so creation
	// re-checks under the resource locks.
	g.GET("/availability", h.Availability)

	// Staff schedules are not for customers; front desk and admins only.
	sg := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN", "STAFF"),
	)
	sg.GET("/staff/:id/schedule", h.StaffSchedule)
}
