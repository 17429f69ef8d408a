package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/minhtran/spa-booking/internal/model"
	"github.com/minhtran/spa-booking/internal/repository"
)

type createServiceReq struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	DurationMin uint32  `json:"duration_min"`
	PriceCents  uint32  `json:"price_cents"`
}

// CreateService handles POST /v1/admin/services.
func (h *AdminHandler) CreateService(c echo.Context) error {
	var req createServiceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Name == "" || req.DurationMin == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and duration_min are required"})
	}
	s := &model.SpaService{
		Name:        req.Name,
		Description: req.Description,
		DurationMin: req.DurationMin,
		PriceCents:  req.PriceCents,
	}
	if err := h.ServiceRepo.Create(c.Request().Context(), s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create service failed"})
	}
	return c.JSON(http.StatusCreated, s)
}

// ListServices handles GET /v1/services, the storefront catalog.
func (h *AdminHandler) ListServices(c echo.Context) error {
	out, err := h.ServiceRepo.ListActive(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateServicePrice handles PATCH /v1/admin/services/:id/price.  The new
// price applies to future bookings only; existing booking lines keep
// their snapshot.
func (h *AdminHandler) UpdateServicePrice(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	var req struct {
		PriceCents uint32 `json:"price_cents"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.ServiceRepo.UpdatePrice(c.Request().Context(), id, req.PriceCents); err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
