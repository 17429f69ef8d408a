package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/minhtran/spa-booking/internal/model"
	"github.com/minhtran/spa-booking/internal/repository"
)

type recordPaymentReq struct {
	AmountCents uint32  `json:"amount_cents"`
	Method      string  `json:"method"`
	Reference   *string `json:"reference,omitempty"`
	PaidAt      string  `json:"paid_at,omitempty"` // RFC3339; defaults to now
}

var paymentMethods = map[string]bool{"CASH": true, "CARD": true, "TRANSFER": true}

// RecordPayment handles POST /v1/bookings/:id/payments.  Front-desk staff
// record money received against a booking; the gateway itself lives
// outside this service.
func (h *AdminHandler) RecordPayment(c echo.Context) error {
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req recordPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.AmountCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount_cents must be positive"})
	}
	if !paymentMethods[req.Method] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "method must be CASH, CARD or TRANSFER"})
	}
	paidAt := time.Now().UTC()
	if req.PaidAt != "" {
		paidAt, err = time.Parse(time.RFC3339, req.PaidAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "paid_at must be RFC3339"})
		}
		paidAt = paidAt.UTC()
	}
	p := &model.Payment{
		BookingID:   bookingID,
		AmountCents: req.AmountCents,
		Method:      req.Method,
		Reference:   req.Reference,
		PaidAt:      paidAt,
	}
	if err := h.PaymentRepo.Create(c.Request().Context(), p); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record payment failed"})
	}
	return c.JSON(http.StatusCreated, p)
}

// ListPayments handles GET /v1/bookings/:id/payments.
func (h *AdminHandler) ListPayments(c echo.Context) error {
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	out, err := h.PaymentRepo.ListByBooking(c.Request().Context(), bookingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, out)
}
