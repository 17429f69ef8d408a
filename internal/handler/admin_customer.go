package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/minhtran/spa-booking/internal/model"
	"github.com/minhtran/spa-booking/internal/repository"
)

type createCustomerReq struct {
	FullName string  `json:"full_name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone,omitempty"`
}

// CreateCustomer handles POST /v1/admin/customers.  The front desk uses
// it to register walk-ins who have no login account; the profile's UserID
// stays nil.
func (h *AdminHandler) CreateCustomer(c echo.Context) error {
	var req createCustomerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.FullName == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name and email are required"})
	}
	cust := &model.Customer{FullName: req.FullName, Email: req.Email, Phone: req.Phone}
	if err := h.CustomerRepo.Create(c.Request().Context(), cust); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a customer with this email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create customer failed"})
	}
	return c.JSON(http.StatusCreated, cust)
}

// ListCustomers handles GET /v1/admin/customers.
func (h *AdminHandler) ListCustomers(c echo.Context) error {
	out, err := h.CustomerRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, out)
}

// GetCustomer handles GET /v1/admin/customers/:id.
func (h *AdminHandler) GetCustomer(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}
	cust, err := h.CustomerRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, cust)
}
