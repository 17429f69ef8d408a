package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/minhtran/spa-booking/internal/model"
	"github.com/minhtran/spa-booking/internal/repository"
)

// AdminHandler bundles the repositories the admin frontend needs to
// manage the catalog: staff, rooms, services, customers and payments.
type AdminHandler struct {
	StaffRepo    *repository.StaffRepo
	RoomRepo     *repository.RoomRepo
	ServiceRepo  *repository.ServiceRepo
	CustomerRepo *repository.CustomerRepo
	PaymentRepo  *repository.PaymentRepo
}

// NewAdminHandler constructs a new AdminHandler and panics if any
// dependency is nil.
func NewAdminHandler(staff *repository.StaffRepo, rooms *repository.RoomRepo, services *repository.ServiceRepo, customers *repository.CustomerRepo, payments *repository.PaymentRepo) *AdminHandler {
	if staff == nil || rooms == nil || services == nil || customers == nil || payments == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{
		StaffRepo:    staff,
		RoomRepo:     rooms,
		ServiceRepo:  services,
		CustomerRepo: customers,
		PaymentRepo:  payments,
	}
}

type createStaffReq struct {
	FullName string  `json:"full_name"`
	Title    *string `json:"title,omitempty"`
	Email    string  `json:"email"`
}

// CreateStaff handles POST /v1/admin/staff.
func (h *AdminHandler) CreateStaff(c echo.Context) error {
	var req createStaffReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.FullName == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name and email are required"})
	}
	s := &model.Staff{FullName: req.FullName, Title: req.Title, Email: req.Email}
	if err := h.StaffRepo.Create(c.Request().Context(), s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create staff failed"})
	}
	return c.JSON(http.StatusCreated, s)
}

// ListStaff handles GET /v1/staff (also used by the storefront to pick a
// therapist).
func (h *AdminHandler) ListStaff(c echo.Context) error {
	out, err := h.StaffRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, out)
}

// GetStaff handles GET /v1/admin/staff/:id.
func (h *AdminHandler) GetStaff(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid staff id"})
	}
	s, err := h.StaffRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrStaffNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "staff not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, s)
}

// SetStaffActive handles PATCH /v1/admin/staff/:id/active.
func (h *AdminHandler) SetStaffActive(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid staff id"})
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.StaffRepo.SetActive(c.Request().Context(), id, req.Active); err != nil {
		if errors.Is(err, repository.ErrStaffNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "staff not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
