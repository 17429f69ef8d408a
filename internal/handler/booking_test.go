package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/minhtran/spa-booking/internal/model"
	"github.com/minhtran/spa-booking/internal/repository"
)

type fakeCustomerDirectory struct {
	cust *model.Customer
	err  error
}

func (f *fakeCustomerDirectory) GetByUserID(ctx context.Context, userID uint64) (*model.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cust, nil
}

// createAsCustomer runs BookingHandler.Create as an authenticated
// CUSTOMER whose profile lookup goes through dir.  withIdentity controls
// whether the context carries a user_id at all.
func createAsCustomer(t *testing.T, dir CustomerDirectory, withIdentity bool) *httptest.ResponseRecorder {
	t.Helper()
	h := &BookingHandler{Customers: dir}
	body := `{"staff_id":1,"room_id":1,"start_at":"2026-01-10T09:00:00Z","services":[{"service_id":1,"quantity":1}]}`

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("role", "CUSTOMER")
	if withIdentity {
		c.Set("user_id", uint64(7))
	}
	if err := h.Create(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

// A transient failure while resolving the caller's profile is a server
// fault, not an authentication problem.
func TestCreateBookingProfileLookupFailureIs500(t *testing.T) {
	dir := &fakeCustomerDirectory{err: errors.New("dial tcp 10.0.0.5:3306: connection refused")}
	rec := createAsCustomer(t, dir, true)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusInternalServerError, rec.Body)
	}
}

func TestCreateBookingMissingProfileIs404(t *testing.T) {
	dir := &fakeCustomerDirectory{err: repository.ErrCustomerNotFound}
	rec := createAsCustomer(t, dir, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCreateBookingWithoutIdentityIs401(t *testing.T) {
	dir := &fakeCustomerDirectory{cust: &model.Customer{ID: 3}}
	rec := createAsCustomer(t, dir, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
