package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/minhtran/spa-booking/internal/model"
	"github.com/minhtran/spa-booking/internal/repository"
	"github.com/minhtran/spa-booking/internal/schedule"
	"github.com/minhtran/spa-booking/internal/service"
)

// BookingHandler exposes the booking orchestration operations over HTTP:
// creating a booking, driving it through its lifecycle, rescheduling and
// the pre-flight availability check.  All scheduling decisions live in
// the service layer; this handler only binds requests, maps identities
// and translates typed errors to status codes.
type BookingHandler struct {
	Svc       *service.BookingService
	Bookings  *repository.BookingRepo
	Customers CustomerDirectory
}

// CustomerDirectory resolves the customer profile linked to a login
// account.  Satisfied by repository.CustomerRepo.
type CustomerDirectory interface {
	GetByUserID(ctx context.Context, userID uint64) (*model.Customer, error)
}

// NewBookingHandler constructs a BookingHandler.  All dependencies must
// be non-nil.
func NewBookingHandler(svc *service.BookingService, bookings *repository.BookingRepo, customers CustomerDirectory) *BookingHandler {
	if svc == nil || bookings == nil || customers == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc, Bookings: bookings, Customers: customers}
}

// ----- DTOs -----

type serviceLineReq struct {
	ServiceID uint64 `json:"service_id"`
	Quantity  uint32 `json:"quantity"`
}

type createBookingReq struct {
	CustomerID uint64           `json:"customer_id,omitempty"` // admin only; customers book for themselves
	StaffID    uint64           `json:"staff_id"`
	RoomID     uint64           `json:"room_id"`
	StartAt    string           `json:"start_at"`          // RFC3339
	EndAt      string           `json:"end_at,omitempty"`  // RFC3339, optional
	Notes      string           `json:"notes,omitempty"`
	Services   []serviceLineReq `json:"services"`
}

type updateStatusReq struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type rescheduleReq struct {
	StartAt string `json:"start_at"`
	EndAt   string `json:"end_at,omitempty"`
}

type bookingResp struct {
	ID         uint64              `json:"id"`
	CustomerID uint64              `json:"customer_id"`
	StaffID    uint64              `json:"staff_id"`
	RoomID     uint64              `json:"room_id"`
	StartAt    string              `json:"start_at"`
	EndAt      *string             `json:"end_at,omitempty"`
	Status     string              `json:"status"`
	TotalCents uint32              `json:"total_cents"`
	Notes      string              `json:"notes,omitempty"`
	Services   []model.ServiceLine `json:"services"`
	Warning    string              `json:"warning,omitempty"`
}

func toBookingResp(v *service.BookingView) bookingResp {
	resp := bookingResp{
		ID:         v.ID,
		CustomerID: v.CustomerID,
		StaffID:    v.StaffID,
		RoomID:     v.RoomID,
		StartAt:    v.StartAt.UTC().Format(time.RFC3339),
		Status:     string(v.Status),
		TotalCents: v.TotalCents,
		Notes:      v.Notes,
		Services:   v.Lines,
	}
	if !v.EndAt.IsZero() {
		iso := v.EndAt.UTC().Format(time.RFC3339)
		resp.EndAt = &iso
	}
	return resp
}

// parseTime accepts an RFC3339 timestamp; empty strings map to the zero
// time, which downstream code treats as "not supplied".
func parseTime(s string) (time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// writeServiceError translates the service error taxonomy to HTTP.  A
// dispatch error never reaches here; callers handle it separately because
// the booking change has already been committed by then.
func writeServiceError(c echo.Context, err error) error {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Error(), "fields": verr.Fields})
	}
	var conflict *schedule.ConflictError
	if errors.As(err, &conflict) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":       conflict.Error(),
			"resource":    string(conflict.Kind),
			"resource_id": conflict.ResourceID,
		})
	}
	var trans *model.InvalidTransitionError
	if errors.As(err, &trans) {
		return c.JSON(http.StatusConflict, echo.Map{"error": trans.Error()})
	}
	switch {
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrCustomerNotFound),
		errors.Is(err, repository.ErrStaffNotFound),
		errors.Is(err, repository.ErrRoomNotFound),
		errors.Is(err, repository.ErrServiceNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// resolveCustomer decides which customer a create request books for.
// Admins may pass any customer_id; everyone else books for the customer
// profile linked to their own account.
func (h *BookingHandler) resolveCustomer(c echo.Context, requested uint64) (uint64, error) {
	role, _ := c.Get("role").(string)
	if role == "ADMIN" && requested != 0 {
		return requested, nil
	}
	uid, err := getUserID(c)
	if err != nil {
		return 0, err
	}
	cust, err := h.Customers.GetByUserID(c.Request().Context(), uid)
	if err != nil {
		return 0, err
	}
	return cust.ID, nil
}

// Create handles POST /v1/bookings.  On success it returns 201 with the
// created booking in PENDING state.  When the booking was created but a
// notification handler failed, the response is still 201 and carries a
// warning; the booking stands regardless of notification delivery.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	customerID, err := h.resolveCustomer(c, req.CustomerID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCustomerNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer profile not found"})
		case errors.Is(err, errNoIdentity):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	start, ok := parseTime(req.StartAt)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_at must be RFC3339"})
	}
	end, ok := parseTime(req.EndAt)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_at must be RFC3339"})
	}
	lines := make([]service.ServiceLineInput, 0, len(req.Services))
	for _, l := range req.Services {
		lines = append(lines, service.ServiceLineInput{ServiceID: l.ServiceID, Quantity: l.Quantity})
	}

	view, err := h.Svc.CreateBooking(c.Request().Context(), service.CreateBookingInput{
		CustomerID: customerID,
		StaffID:    req.StaffID,
		RoomID:     req.RoomID,
		StartAt:    start,
		EndAt:      end,
		Notes:      req.Notes,
		Lines:      lines,
	})
	if err != nil {
		if view != nil {
			// Booking committed; only notification dispatch failed.
			resp := toBookingResp(view)
			resp.Warning = "booking created but a notification could not be delivered"
			return c.JSON(http.StatusCreated, resp)
		}
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResp(view))
}

// UpdateStatus handles PATCH /v1/bookings/:id/status.  It maps the
// requested target status onto a lifecycle transition.  A failed
// notification after a committed transition yields 200 with a warning.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	target := model.BookingStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !model.ValidStatus(target) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be PENDING, CONFIRMED, COMPLETED or CANCELLED"})
	}

	// Customers may only cancel, and only their own bookings.  Confirming
	// and completing are front-desk operations.
	if role, _ := c.Get("role").(string); role == "CUSTOMER" {
		if target != model.StatusCancelled {
			return writeServiceError(c, repository.ErrForbidden)
		}
		b, err := h.Bookings.GetByID(c.Request().Context(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		ownID, err := h.resolveCustomer(c, 0)
		if err != nil || ownID != b.CustomerID {
			return writeServiceError(c, repository.ErrForbidden)
		}
	}

	view, err := h.Svc.UpdateBookingStatus(c.Request().Context(), id, target, req.Reason)
	if err != nil {
		if view != nil {
			resp := toBookingResp(view)
			resp.Warning = "status updated but a notification could not be delivered"
			return c.JSON(http.StatusOK, resp)
		}
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(view))
}

// Reschedule handles PATCH /v1/bookings/:id/schedule.  The new window is
// re-checked against both the staff member's and the room's calendars
// with this booking excluded.
func (h *BookingHandler) Reschedule(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req rescheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, ok := parseTime(req.StartAt)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_at must be RFC3339"})
	}
	end, ok := parseTime(req.EndAt)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_at must be RFC3339"})
	}

	// Customers may only move their own bookings.
	if role, _ := c.Get("role").(string); role == "CUSTOMER" {
		b, err := h.Bookings.GetByID(c.Request().Context(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		ownID, err := h.resolveCustomer(c, 0)
		if err != nil || ownID != b.CustomerID {
			return writeServiceError(c, repository.ErrForbidden)
		}
	}

	view, err := h.Svc.RescheduleBooking(c.Request().Context(), id, start, end)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(view))
}

// Availability handles GET /v1/availability.  Query parameters: kind
// (staff|room), resource_id, start, end (RFC3339, end optional) and
// exclude_booking_id (optional).  It is the pre-flight check the
// storefront calls while the customer is still picking a slot.
func (h *BookingHandler) Availability(c echo.Context) error {
	var kind schedule.ResourceKind
	switch strings.ToLower(c.QueryParam("kind")) {
	case "staff":
		kind = schedule.ResourceStaff
	case "room":
		kind = schedule.ResourceRoom
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be staff or room"})
	}
	resourceID, err := strconv.ParseUint(c.QueryParam("resource_id"), 10, 64)
	if err != nil || resourceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource_id"})
	}
	start, ok := parseTime(c.QueryParam("start"))
	if !ok || start.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start must be RFC3339"})
	}
	end, ok := parseTime(c.QueryParam("end"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be RFC3339"})
	}
	var exclude uint64
	if raw := c.QueryParam("exclude_booking_id"); raw != "" {
		exclude, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exclude_booking_id"})
		}
	}

	available, err := h.Svc.CheckAvailability(c.Request().Context(), kind, resourceID, start, end, exclude)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available": available})
}

// Get handles GET /v1/bookings/:id.  Customers may only read their own
// bookings; staff and admins may read any.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	if role, _ := c.Get("role").(string); role == "CUSTOMER" {
		ownID, err := h.resolveCustomer(c, 0)
		if err != nil || ownID != b.CustomerID {
			return writeServiceError(c, repository.ErrForbidden)
		}
	}
	view := &service.BookingView{
		ID: b.ID, CustomerID: b.CustomerID, StaffID: b.StaffID, RoomID: b.RoomID,
		StartAt: b.StartAt, EndAt: b.EndAt, Status: b.Status,
		TotalCents: b.TotalCents, Notes: b.Notes, Lines: b.Lines, CreatedAt: b.CreatedAt,
	}
	return c.JSON(http.StatusOK, toBookingResp(view))
}

// MyBookings handles GET /v1/my-bookings for storefront customers.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cust, err := h.Customers.GetByUserID(c.Request().Context(), uid)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	details, err := h.Bookings.ListByCustomer(c.Request().Context(), cust.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, details)
}

// StaffSchedule handles GET /v1/staff/:id/schedule for the admin
// frontend and the front desk.
func (h *BookingHandler) StaffSchedule(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid staff id"})
	}
	details, err := h.Bookings.ListByStaff(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, details)
}
