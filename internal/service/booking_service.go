// Package service contains the booking use-case coordinator.  It sits
// between the HTTP handlers and the persistence layer: it validates the
// requested window, checks staff and room availability under a
// per-resource lock, drives the booking through its lifecycle transitions
// and hands the recorded domain events to the dispatcher once the change
// has been committed.
package service

import (
	"context"
	"time"

	"github.com/minhtran/spa-booking/internal/event"
	"github.com/minhtran/spa-booking/internal/model"
	"github.com/minhtran/spa-booking/internal/schedule"
)

// BookingStore is the persistence boundary the service depends on.  The
// production implementation is repository.BookingRepo; tests supply an
// in-memory fake.
type BookingStore interface {
	schedule.OccupancyReader
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus) error
	UpdateWindow(ctx context.Context, id uint64, start, end time.Time) error
}

// ServiceCatalog resolves catalog services so their current prices can be
// snapshotted onto a new booking's lines.
type ServiceCatalog interface {
	GetByID(ctx context.Context, id uint64) (*model.SpaService, error)
}

// BookingService coordinates booking creation, lifecycle transitions and
// event dispatch.  All methods run to completion on the caller's
// goroutine; the only internal synchronization is the per-resource lock
// table that closes the check-then-create race.
type BookingService struct {
	store      BookingStore
	catalog    ServiceCatalog
	checker    *schedule.Checker
	locks      *schedule.Locks
	dispatcher *event.Dispatcher
}

// NewBookingService wires the coordinator.  The dispatcher's registry
// must already be fully built.
func NewBookingService(store BookingStore, catalog ServiceCatalog, dispatcher *event.Dispatcher) *BookingService {
	return &BookingService{
		store:      store,
		catalog:    catalog,
		checker:    schedule.NewChecker(store),
		locks:      schedule.NewLocks(),
		dispatcher: dispatcher,
	}
}

// ServiceLineInput selects one catalog service and a quantity for a new
// booking.  The price is not part of the input; it is snapshotted from
// the catalog at creation time.
type ServiceLineInput struct {
	ServiceID uint64
	Quantity  uint32
}

// CreateBookingInput is the plain-data request for a new booking.  EndAt
// may be zero, in which case the window spans the configured default
// duration.
type CreateBookingInput struct {
	CustomerID uint64
	StaffID    uint64
	RoomID     uint64
	StartAt    time.Time
	EndAt      time.Time
	Notes      string
	Lines      []ServiceLineInput
}

// BookingView is the public projection returned across the service
// boundary.  No persistence or framework types leak through it.
type BookingView struct {
	ID         uint64
	CustomerID uint64
	StaffID    uint64
	RoomID     uint64
	StartAt    time.Time
	EndAt      time.Time
	Status     model.BookingStatus
	TotalCents uint32
	Notes      string
	Lines      []model.ServiceLine
	CreatedAt  time.Time
}

func viewOf(b *model.Booking) *BookingView {
	return &BookingView{
		ID:         b.ID,
		CustomerID: b.CustomerID,
		StaffID:    b.StaffID,
		RoomID:     b.RoomID,
		StartAt:    b.StartAt,
		EndAt:      b.EndAt,
		Status:     b.Status,
		TotalCents: b.TotalCents,
		Notes:      b.Notes,
		Lines:      b.Lines,
		CreatedAt:  b.CreatedAt,
	}
}

func (in *CreateBookingInput) validate() error {
	verr := newValidationError()
	if in.CustomerID == 0 {
		verr.add("customer_id", "provide a customer")
	}
	if in.StaffID == 0 {
		verr.add("staff_id", "provide a staff member")
	}
	if in.RoomID == 0 {
		verr.add("room_id", "provide a room")
	}
	if in.StartAt.IsZero() {
		verr.add("start_at", "provide a start time")
	}
	if !in.EndAt.IsZero() && !in.EndAt.After(in.StartAt) {
		verr.add("end_at", "end must be after start")
	}
	if len(in.Lines) == 0 {
		verr.add("services", "provide at least one service")
	}
	for _, l := range in.Lines {
		if l.ServiceID == 0 {
			verr.add("services.service_id", "provide a service id")
		}
		if l.Quantity == 0 {
			verr.add("services.quantity", "quantity must be positive")
		}
	}
	if !verr.ok() {
		return verr
	}
	return nil
}

// CreateBooking validates the request, verifies staff and room
// availability and saves a PENDING booking.  The availability check and
// the insert run under the locks of both resources so two concurrent
// requests for the same therapist or room cannot both pass the check and
// double-book the window.  Events are dispatched only after the store
// commit; a dispatch failure is returned together with the created
// booking, which stands regardless.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*BookingView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	lines, err := s.resolveLines(ctx, in.Lines)
	if err != nil {
		return nil, err
	}

	staffWin := schedule.Window{Kind: schedule.ResourceStaff, ID: in.StaffID, Start: in.StartAt, End: in.EndAt}
	roomWin := schedule.Window{Kind: schedule.ResourceRoom, ID: in.RoomID, Start: in.StartAt, End: in.EndAt}

	b := model.NewBooking(in.CustomerID, in.StaffID, in.RoomID, in.StartAt, in.EndAt, lines, in.Notes)

	release := s.locks.Acquire(staffWin, roomWin)
	err = func() error {
		defer release()
		if err := s.checker.Check(ctx, staffWin, 0); err != nil {
			return err
		}
		if err := s.checker.Check(ctx, roomWin, 0); err != nil {
			return err
		}
		return s.store.Create(ctx, b)
	}()
	if err != nil {
		return nil, err
	}

	b.RecordCreated()
	if derr := s.dispatcher.DispatchAll(ctx, b.PullEvents()); derr != nil {
		return viewOf(b), derr
	}
	return viewOf(b), nil
}

// resolveLines snapshots current catalog prices onto the requested lines.
func (s *BookingService) resolveLines(ctx context.Context, in []ServiceLineInput) ([]model.ServiceLine, error) {
	lines := make([]model.ServiceLine, 0, len(in))
	for _, l := range in {
		svc, err := s.catalog.GetByID(ctx, l.ServiceID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, model.ServiceLine{
			ServiceID:  svc.ID,
			Quantity:   l.Quantity,
			PriceCents: svc.PriceCents,
		})
	}
	return lines, nil
}

// UpdateBookingStatus maps the requested target status onto the matching
// lifecycle transition, persists the result and dispatches the recorded
// events.  Unsupported targets (PENDING, or an unknown value) are a
// validation error; illegal transitions surface as
// model.InvalidTransitionError from the entity itself.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, bookingID uint64, target model.BookingStatus, reason string) (*BookingView, error) {
	b, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	switch target {
	case model.StatusConfirmed:
		err = b.Confirm()
	case model.StatusCancelled:
		err = b.Cancel(reason)
	case model.StatusCompleted:
		err = b.Complete()
	default:
		verr := newValidationError()
		verr.add("status", "unsupported target status")
		return nil, verr
	}
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateStatus(ctx, b.ID, b.Status); err != nil {
		return nil, err
	}
	if derr := s.dispatcher.DispatchAll(ctx, b.PullEvents()); derr != nil {
		return viewOf(b), derr
	}
	return viewOf(b), nil
}

// RescheduleBooking moves an existing booking to a new window.  The
// availability of the booking's own staff member and room is re-verified
// with the booking excluded from its own calendars, under the same locks
// as creation.  The status does not change and no lifecycle event is
// recorded; this mirrors the plain update path of the storefront.
func (s *BookingService) RescheduleBooking(ctx context.Context, bookingID uint64, newStart, newEnd time.Time) (*BookingView, error) {
	verr := newValidationError()
	if newStart.IsZero() {
		verr.add("start_at", "provide a start time")
	}
	if !newEnd.IsZero() && !newEnd.After(newStart) {
		verr.add("end_at", "end must be after start")
	}
	if !verr.ok() {
		return nil, verr
	}
	b, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	staffWin := schedule.Window{Kind: schedule.ResourceStaff, ID: b.StaffID, Start: newStart, End: newEnd}
	roomWin := schedule.Window{Kind: schedule.ResourceRoom, ID: b.RoomID, Start: newStart, End: newEnd}

	release := s.locks.Acquire(staffWin, roomWin)
	err = func() error {
		defer release()
		if err := s.checker.Check(ctx, staffWin, b.ID); err != nil {
			return err
		}
		if err := s.checker.Check(ctx, roomWin, b.ID); err != nil {
			return err
		}
		b.Reschedule(newStart, newEnd)
		return s.store.UpdateWindow(ctx, b.ID, newStart, newEnd)
	}()
	if err != nil {
		return nil, err
	}
	return viewOf(b), nil
}

// CheckAvailability is the pre-flight query the storefront calls before
// committing to CreateBooking.  It reports whether the resource is free
// for the window; excludeBookingID, when non-zero, ignores that booking's
// own interval.
func (s *BookingService) CheckAvailability(ctx context.Context, kind schedule.ResourceKind, resourceID uint64, start, end time.Time, excludeBookingID uint64) (bool, error) {
	switch kind {
	case schedule.ResourceStaff:
		return s.checker.IsStaffAvailable(ctx, resourceID, start, end, excludeBookingID)
	case schedule.ResourceRoom:
		return s.checker.IsRoomAvailable(ctx, resourceID, start, end, excludeBookingID)
	default:
		verr := newValidationError()
		verr.add("kind", "unknown resource kind")
		return false, verr
	}
}
