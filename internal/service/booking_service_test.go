package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/minhtran/spa-booking/internal/event"
	"github.com/minhtran/spa-booking/internal/model"
	"github.com/minhtran/spa-booking/internal/schedule"
)

// fakeStore is an in-memory BookingStore.  It reproduces the one property
// the coordinator relies on: FindActiveByResource reads whatever bookings
// Create has committed so far.
type fakeStore struct {
	mu       sync.Mutex
	nextID   uint64
	bookings map[uint64]*model.Booking

	createErr error
	// createDelay widens the check-then-create window to make races
	// reproducible.
	createDelay time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, bookings: make(map[uint64]*model.Booking)}
}

func (f *fakeStore) Create(ctx context.Context, b *model.Booking) error {
	if f.createDelay > 0 {
		time.Sleep(f.createDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	b.ID = f.nextID
	f.nextID++
	b.CreatedAt = time.Now().UTC()
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, errors.New("booking not found")
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return errors.New("booking not found")
	}
	b.Status = status
	return nil
}

func (f *fakeStore) UpdateWindow(ctx context.Context, id uint64, start, end time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return errors.New("booking not found")
	}
	b.StartAt, b.EndAt = start, end
	return nil
}

func (f *fakeStore) FindActiveByResource(ctx context.Context, kind schedule.ResourceKind, resourceID uint64) ([]schedule.Occupancy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []schedule.Occupancy
	for _, b := range f.bookings {
		if b.Status == model.StatusCancelled {
			continue
		}
		switch kind {
		case schedule.ResourceStaff:
			if b.StaffID != resourceID {
				continue
			}
		case schedule.ResourceRoom:
			if b.RoomID != resourceID {
				continue
			}
		}
		out = append(out, schedule.Occupancy{BookingID: b.ID, Start: b.StartAt, End: b.EndAt})
	}
	return out, nil
}

// fakeCatalog returns a fixed price for every known service.
type fakeCatalog struct {
	prices map[uint64]uint32
}

func (f *fakeCatalog) GetByID(ctx context.Context, id uint64) (*model.SpaService, error) {
	p, ok := f.prices[id]
	if !ok {
		return nil, errors.New("service not found")
	}
	return &model.SpaService{ID: id, Name: "svc", DurationMin: 60, PriceCents: p}, nil
}

func newTestService(store *fakeStore, reg event.Registry) *BookingService {
	if reg == nil {
		reg = event.Registry{}
	}
	catalog := &fakeCatalog{prices: map[uint64]uint32{5: 4500, 6: 12000}}
	return NewBookingService(store, catalog, event.NewDispatcher(reg))
}

func ts(h, m int) time.Time {
	return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
}

func createInput(staffID, roomID uint64, start, end time.Time) CreateBookingInput {
	return CreateBookingInput{
		CustomerID: 1,
		StaffID:    staffID,
		RoomID:     roomID,
		StartAt:    start,
		EndAt:      end,
		Lines:      []ServiceLineInput{{ServiceID: 5, Quantity: 1}},
	}
}

func TestCreateBookingConflictMatrix(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	ctx := context.Background()

	// Staff 7 in room 3, 10:00-11:00.
	first, err := svc.CreateBooking(ctx, createInput(7, 3, ts(10, 0), ts(11, 0)))
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if first.Status != model.StatusPending || first.TotalCents != 4500 {
		t.Fatalf("first booking wrong: %+v", first)
	}

	// Same staff, different room, overlapping window: staff conflict.
	_, err = svc.CreateBooking(ctx, createInput(7, 4, ts(10, 30), ts(11, 30)))
	var conflict *schedule.ConflictError
	if !errors.As(err, &conflict) || conflict.Kind != schedule.ResourceStaff {
		t.Fatalf("want staff conflict, got %v", err)
	}

	// Different staff, same room, overlapping window: room conflict.
	_, err = svc.CreateBooking(ctx, createInput(8, 3, ts(10, 30), ts(11, 30)))
	if !errors.As(err, &conflict) || conflict.Kind != schedule.ResourceRoom {
		t.Fatalf("want room conflict, got %v", err)
	}

	// Different staff, different room: succeeds even though the windows
	// overlap.
	if _, err = svc.CreateBooking(ctx, createInput(8, 4, ts(10, 30), ts(11, 30))); err != nil {
		t.Fatalf("independent resources must not conflict: %v", err)
	}

	// Same staff and room, back-to-back window: succeeds.
	if _, err = svc.CreateBooking(ctx, createInput(7, 3, ts(11, 0), ts(12, 0))); err != nil {
		t.Fatalf("back-to-back booking must not conflict: %v", err)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		CustomerID: 1,
		StaffID:    7,
		RoomID:     3,
		StartAt:    ts(11, 0),
		EndAt:      ts(10, 0), // end before start
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want *ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["end_at"]; !ok {
		t.Fatalf("end_at must be flagged: %v", verr.Fields)
	}
	if _, ok := verr.Fields["services"]; !ok {
		t.Fatalf("missing services must be flagged: %v", verr.Fields)
	}
}

func TestCreateBookingSnapshotsPrices(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	in := createInput(7, 3, ts(10, 0), ts(11, 0))
	in.Lines = []ServiceLineInput{{ServiceID: 5, Quantity: 2}, {ServiceID: 6, Quantity: 1}}

	view, err := svc.CreateBooking(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if view.TotalCents != 2*4500+12000 {
		t.Fatalf("TotalCents = %d", view.TotalCents)
	}
	if view.Lines[0].PriceCents != 4500 || view.Lines[1].PriceCents != 12000 {
		t.Fatalf("line prices not snapshotted: %+v", view.Lines)
	}
}

func TestCreateBookingDispatchFailureKeepsBooking(t *testing.T) {
	store := newFakeStore()
	reg := event.Registry{}.Register(event.NameBookingCreated,
		event.HandlerFunc(func(ctx context.Context, ev event.Event) error {
			return errors.New("broker down")
		}))
	svc := newTestService(store, reg)

	view, err := svc.CreateBooking(context.Background(), createInput(7, 3, ts(10, 0), ts(11, 0)))
	// The booking stands; the dispatch failure comes back alongside it.
	var de *event.DispatchError
	if !errors.As(err, &de) {
		t.Fatalf("want *DispatchError, got %v", err)
	}
	if view == nil || view.ID == 0 {
		t.Fatal("booking must be returned despite dispatch failure")
	}
	if _, gerr := store.GetByID(context.Background(), view.ID); gerr != nil {
		t.Fatalf("booking must remain committed: %v", gerr)
	}
}

func TestConcurrentCreatesCannotDoubleBook(t *testing.T) {
	store := newFakeStore()
	// Slow down the insert so unlocked check-then-create would interleave.
	store.createDelay = 5 * time.Millisecond
	svc := newTestService(store, nil)

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateBooking(context.Background(), createInput(7, 3, ts(10, 0), ts(11, 0)))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var created, conflicted int
	for err := range errs {
		switch {
		case err == nil:
			created++
		default:
			var conflict *schedule.ConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("unexpected error: %v", err)
			}
			conflicted++
		}
	}
	if created != 1 {
		t.Fatalf("exactly one of %d identical concurrent bookings may win, got %d", attempts, created)
	}
	if conflicted != attempts-1 {
		t.Fatalf("losers must see conflicts, got %d", conflicted)
	}
}

func TestUpdateBookingStatusLifecycle(t *testing.T) {
	store := newFakeStore()
	var published []string
	reg := event.Registry{}
	for _, name := range []string{event.NameBookingConfirmed, event.NameBookingCancelled, event.NameBookingCompleted} {
		reg.Register(name, event.HandlerFunc(func(ctx context.Context, ev event.Event) error {
			published = append(published, ev.Name())
			return nil
		}))
	}
	svc := newTestService(store, reg)
	ctx := context.Background()

	view, err := svc.CreateBooking(ctx, createInput(7, 3, ts(10, 0), ts(11, 0)))
	if err != nil {
		t.Fatal(err)
	}

	// PENDING -> CONFIRMED.
	view, err = svc.UpdateBookingStatus(ctx, view.ID, model.StatusConfirmed, "")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if view.Status != model.StatusConfirmed {
		t.Fatalf("status = %s", view.Status)
	}

	// CONFIRMED -> COMPLETED.
	view, err = svc.UpdateBookingStatus(ctx, view.ID, model.StatusCompleted, "")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	// COMPLETED is terminal: cancelling now is an invalid transition.
	_, err = svc.UpdateBookingStatus(ctx, view.ID, model.StatusCancelled, "too late")
	var it *model.InvalidTransitionError
	if !errors.As(err, &it) {
		t.Fatalf("want *InvalidTransitionError, got %v", err)
	}

	// The persisted status survived the failed transition.
	b, err := store.GetByID(ctx, view.ID)
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != model.StatusCompleted {
		t.Fatalf("persisted status = %s", b.Status)
	}

	if len(published) != 2 || published[0] != event.NameBookingConfirmed || published[1] != event.NameBookingCompleted {
		t.Fatalf("published events wrong: %v", published)
	}
}

func TestUpdateBookingStatusRejectsPendingTarget(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	ctx := context.Background()

	view, err := svc.CreateBooking(ctx, createInput(7, 3, ts(10, 0), ts(11, 0)))
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.UpdateBookingStatus(ctx, view.ID, model.StatusPending, "")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("moving back to PENDING must be a validation error, got %v", err)
	}
}

func TestCancelledBookingFreesItsWindow(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	ctx := context.Background()

	view, err := svc.CreateBooking(ctx, createInput(7, 3, ts(10, 0), ts(11, 0)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err = svc.UpdateBookingStatus(ctx, view.ID, model.StatusCancelled, "customer sick"); err != nil {
		t.Fatal(err)
	}

	// The window is free again.
	if _, err = svc.CreateBooking(ctx, createInput(7, 3, ts(10, 0), ts(11, 0))); err != nil {
		t.Fatalf("cancelled bookings must not block: %v", err)
	}
}

func TestRescheduleExcludesOwnWindow(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	ctx := context.Background()

	view, err := svc.CreateBooking(ctx, createInput(7, 3, ts(10, 0), ts(11, 0)))
	if err != nil {
		t.Fatal(err)
	}

	// Shift by 15 minutes into a window that overlaps the booking's own
	// current slot.  The booking must not conflict with itself.
	moved, err := svc.RescheduleBooking(ctx, view.ID, ts(10, 15), ts(11, 15))
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if !moved.StartAt.Equal(ts(10, 15)) {
		t.Fatalf("window not moved: %v", moved.StartAt)
	}

	// A second booking now occupies 12:00-13:00; rescheduling the first
	// into it must fail with a conflict.
	if _, err = svc.CreateBooking(ctx, createInput(7, 3, ts(12, 0), ts(13, 0))); err != nil {
		t.Fatal(err)
	}
	_, err = svc.RescheduleBooking(ctx, view.ID, ts(12, 30), ts(13, 30))
	var conflict *schedule.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("want conflict, got %v", err)
	}
}

func TestCheckAvailability(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	ctx := context.Background()

	if _, err := svc.CreateBooking(ctx, createInput(7, 3, ts(10, 0), ts(11, 0))); err != nil {
		t.Fatal(err)
	}

	free, err := svc.CheckAvailability(ctx, schedule.ResourceStaff, 7, ts(10, 30), ts(11, 30), 0)
	if err != nil {
		t.Fatal(err)
	}
	if free {
		t.Fatal("staff 7 is busy")
	}
	free, err = svc.CheckAvailability(ctx, schedule.ResourceRoom, 4, ts(10, 30), ts(11, 30), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !free {
		t.Fatal("room 4 is free")
	}

	_, err = svc.CheckAvailability(ctx, "ELEPHANT", 1, ts(10, 0), ts(11, 0), 0)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("unknown kind must be a validation error, got %v", err)
	}
}

func TestCreateBookingDefaultDurationConflicts(t *testing.T) {
	old := schedule.DefaultDuration
	schedule.DefaultDuration = 60 * time.Minute
	defer func() { schedule.DefaultDuration = old }()

	store := newFakeStore()
	svc := newTestService(store, nil)
	ctx := context.Background()

	// Open-ended booking at 10:00 occupies 10:00-11:00 by default.
	if _, err := svc.CreateBooking(ctx, createInput(7, 3, ts(10, 0), time.Time{})); err != nil {
		t.Fatal(err)
	}
	_, err := svc.CreateBooking(ctx, createInput(7, 3, ts(10, 30), ts(11, 30)))
	var conflict *schedule.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("open-ended booking must occupy its default window, got %v", err)
	}
	if _, err := svc.CreateBooking(ctx, createInput(7, 3, ts(11, 0), ts(12, 0))); err != nil {
		t.Fatalf("slot after the default window must be free: %v", err)
	}
}
