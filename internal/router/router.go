package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/minhtran/spa-booking/internal/handler"    // import the handlers that implement business logic
	"github.com/minhtran/spa-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication‑related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Create a route group under the /v1/auth prefix for operations that do
	// not require an existing session (register, login, refresh).  Each of
	// these handlers is responsible for generating or exchanging tokens.
	g := e.Group("/v1/auth")
	// Register a POST endpoint to handle user registration at /v1/auth/register.
	g.POST("/register", a.Register)
	// Register a POST endpoint to handle user login at /v1/auth/login.
	g.POST("/login", a.Login)
	// Register a POST endpoint to refresh access tokens at /v1/auth/refresh.  This rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Register a POST endpoint to log out using a refresh token.  The handler
	// accepts a JSON body containing a `refresh_token` and invalidates it, so
	// no JWT is required on this route.
	g.POST("/logout", a.Logout)

	// Create another group for routes that require a valid access token.  All
	// handlers registered on this group will execute the JWTAuth middleware
	// before being invoked.  Protected endpoints live under /v1.
	auth := e.Group("/v1")
	// Apply the JWTAuth middleware to the protected group using the provided secret.
	auth.Use(middleware.JWTAuth(jwtSecret))
	// Apply the RequireRole middleware for any authenticated endpoint.  The
	// middleware rejects requests with missing or unknown roles.
	auth.Use(middleware.RequireRole("ADMIN", "STAFF", "CUSTOMER"))
	// Register a GET endpoint at /v1/me that returns the authenticated user's information.
	auth.GET("/me", a.Me)
	// Register a POST endpoint at /v1/logout-all that revokes every refresh token of the caller.
	auth.POST("/logout-all", a.LogoutAll)
}

// RegisterCatalog registers unauthenticated browse endpoints for the spa
// catalog.  Guests can inspect services, therapists and rooms before
// registering.  The optional cache middleware serves repeated reads from
// Redis; pass nil to disable caching (e.g. in tests).
func RegisterCatalog(e *echo.Echo, a *handler.AdminHandler, cache echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{}
	if cache != nil {
		mws = append(mws, cache)
	}
	// Expose the list of active services (the storefront menu).
	e.GET("/v1/services", a.ListServices, mws...)
	// Expose the therapist roster so customers can pick a person.
	e.GET("/v1/staff", a.ListStaff, mws...)
	// Expose treatment rooms.
	e.GET("/v1/rooms", a.ListRooms, mws...)
}
