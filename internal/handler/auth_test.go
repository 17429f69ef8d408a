package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/minhtran/spa-booking/internal/config"
	"github.com/minhtran/spa-booking/internal/model"
	"github.com/minhtran/spa-booking/internal/repository"
)

// fakeUserStore records the last account it was asked to create.
type fakeUserStore struct {
	nextID      uint64
	createdMail string
	createdRole string
}

func (f *fakeUserStore) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	f.nextID++
	f.createdMail = email
	f.createdRole = role
	return f.nextID, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (repository.User, error) {
	return repository.User{}, sql.ErrNoRows
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uint64) (repository.User, error) {
	return repository.User{ID: id}, nil
}

type fakeTokenStore struct{ stored int }

func (f *fakeTokenStore) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	f.stored++
	return nil
}

func (f *fakeTokenStore) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	return 0, sql.ErrNoRows
}

func (f *fakeTokenStore) RevokeByHash(ctx context.Context, tokenHash string) error  { return nil }
func (f *fakeTokenStore) RevokeAllForUser(ctx context.Context, userID uint64) error { return nil }

type fakeProfileStore struct{ created []model.Customer }

func (f *fakeProfileStore) Create(ctx context.Context, c *model.Customer) error {
	c.ID = uint64(len(f.created) + 1)
	f.created = append(f.created, *c)
	return nil
}

func newTestAuthHandler() (*AuthHandler, *fakeUserStore, *fakeTokenStore, *fakeProfileStore) {
	users := &fakeUserStore{}
	tokens := &fakeTokenStore{}
	profiles := &fakeProfileStore{}
	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}
	return NewAuthHandler(cfg, users, tokens, profiles), users, tokens, profiles
}

func postJSON(t *testing.T, h echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

// A role smuggled into the public register body must not survive: the
// account lands on CUSTOMER no matter what the client asked for.
func TestRegisterIgnoresRequestedRole(t *testing.T) {
	h, users, _, profiles := newTestAuthHandler()

	rec := postJSON(t, h.Register,
		`{"email":"mallory@example.com","password":"hunter2","role":"ADMIN"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body)
	}
	if users.createdRole != "CUSTOMER" {
		t.Fatalf("self-registration created role %q, want CUSTOMER", users.createdRole)
	}

	var resp authResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.User.Role != "CUSTOMER" {
		t.Fatalf("response role = %q, want CUSTOMER", resp.User.Role)
	}

	if len(profiles.created) != 1 {
		t.Fatalf("customer profiles created = %d, want 1", len(profiles.created))
	}
	if got := profiles.created[0]; got.UserID == nil || *got.UserID != resp.User.ID {
		t.Fatalf("profile not linked to the new login: %+v", got)
	}
}

func TestRegisterDerivesNameFromEmail(t *testing.T) {
	h, _, _, profiles := newTestAuthHandler()

	rec := postJSON(t, h.Register, `{"email":"anna.k@example.com","password":"pw"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if got := profiles.created[0].FullName; got != "anna.k" {
		t.Fatalf("derived name = %q, want %q", got, "anna.k")
	}
}

func TestCreateUserRejectsNonElevatedRole(t *testing.T) {
	h, users, _, _ := newTestAuthHandler()

	for _, role := range []string{"CUSTOMER", "SUPERUSER", ""} {
		rec := postJSON(t, h.CreateUser,
			`{"email":"sam@example.com","password":"pw","role":"`+role+`"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("role %q: status = %d, want %d", role, rec.Code, http.StatusBadRequest)
		}
	}
	if users.createdRole != "" {
		t.Fatalf("a rejected request still created role %q", users.createdRole)
	}
}

func TestCreateUserProvisionsStaffWithoutTokens(t *testing.T) {
	h, users, tokens, _ := newTestAuthHandler()

	rec := postJSON(t, h.CreateUser,
		`{"email":"Desk@Example.com","password":"pw","role":"staff"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body)
	}
	if users.createdRole != "STAFF" {
		t.Fatalf("created role %q, want STAFF", users.createdRole)
	}
	if users.createdMail != "desk@example.com" {
		t.Fatalf("email not normalized: %q", users.createdMail)
	}
	// Provisioning hands out no session; the employee logs in themselves.
	if tokens.stored != 0 {
		t.Fatalf("refresh tokens stored = %d, want 0", tokens.stored)
	}
}
