package router

import (
	"github.com/labstack/echo/v4"

	"github.com/minhtran/spa-booking/internal/handler"
	"github.com/minhtran/spa-booking/internal/middleware"
)

// RegisterAdmin registers ADMIN-scoped catalog and account management
// endpoints under /v1/admin.  All routes require a valid JWT and the
// ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, auth *handler.AuthHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// ---- Accounts ----
	// STAFF and ADMIN logins are minted here and nowhere else; the public
	// register endpoint only produces CUSTOMER accounts.
	g.POST("/users", auth.CreateUser)

	// ---- Staff ----
	g.POST("/staff", a.CreateStaff)
	g.GET("/staff/:id", a.GetStaff)
	g.PATCH("/staff/:id/active", a.SetStaffActive)

	// ---- Rooms ----
	g.POST("/rooms", a.CreateRoom)
	g.GET("/rooms/:id", a.GetRoom)
	g.PATCH("/rooms/:id/active", a.SetRoomActive)

	// ---- Services ----
	g.POST("/services", a.CreateService)
	g.PATCH("/services/:id/price", a.UpdateServicePrice)

	// ---- Customers ----
	g.POST("/customers", a.CreateCustomer)
	g.GET("/customers", a.ListCustomers)
	g.GET("/customers/:id", a.GetCustomer)

	// Payments are recorded by front desk staff as well as admins, so they
	// live under /v1 with a wider role set.
	pg := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN", "STAFF"),
	)
	pg.POST("/bookings/:id/payments", a.RecordPayment)
	pg.GET("/bookings/:id/payments", a.ListPayments)
}
