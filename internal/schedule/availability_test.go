package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeOccupancy serves canned intervals per resource and counts reads.
type fakeOccupancy struct {
	mu    sync.Mutex
	data  map[lockKey][]Occupancy
	err   error
	reads int
}

func newFakeOccupancy() *fakeOccupancy {
	return &fakeOccupancy{data: make(map[lockKey][]Occupancy)}
}

func (f *fakeOccupancy) add(kind ResourceKind, id uint64, o Occupancy) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := lockKey{kind: kind, id: id}
	f.data[k] = append(f.data[k], o)
}

func (f *fakeOccupancy) FindActiveByResource(ctx context.Context, kind ResourceKind, resourceID uint64) ([]Occupancy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	return f.data[lockKey{kind: kind, id: resourceID}], nil
}

func TestCheckerStaffConflicts(t *testing.T) {
	store := newFakeOccupancy()
	store.add(ResourceStaff, 7, Occupancy{BookingID: 1, Start: at(10, 0), End: at(11, 0)})
	c := NewChecker(store)

	free, err := c.IsStaffAvailable(context.Background(), 7, at(10, 30), at(11, 30), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if free {
		t.Fatal("staff 7 is booked 10:00-11:00; 10:30-11:30 must conflict")
	}

	// A window starting exactly when the existing one ends is free.
	free, err = c.IsStaffAvailable(context.Background(), 7, at(11, 0), at(12, 0), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !free {
		t.Fatal("back-to-back windows must not conflict")
	}

	// A different staff member has an empty calendar.
	free, err = c.IsStaffAvailable(context.Background(), 8, at(10, 30), at(11, 30), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !free {
		t.Fatal("staff 8 has no bookings and must be free")
	}
}

func TestCheckerExcludesOwnBooking(t *testing.T) {
	store := newFakeOccupancy()
	store.add(ResourceRoom, 3, Occupancy{BookingID: 42, Start: at(10, 0), End: at(11, 0)})
	c := NewChecker(store)

	// Rescheduling booking 42 within its own current window: its own
	// interval must not count as a conflict.
	free, err := c.IsRoomAvailable(context.Background(), 3, at(10, 15), at(11, 15), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !free {
		t.Fatal("a booking must not conflict with itself during reschedule")
	}

	// Another booking in the same room still blocks.
	store.add(ResourceRoom, 3, Occupancy{BookingID: 43, Start: at(11, 0), End: at(12, 0)})
	free, err = c.IsRoomAvailable(context.Background(), 3, at(10, 15), at(11, 15), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if free {
		t.Fatal("other bookings must still conflict when excluding own id")
	}
}

func TestCheckerCancelledContextSkipsStoreRead(t *testing.T) {
	store := newFakeOccupancy()
	c := NewChecker(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.IsStaffAvailable(ctx, 7, at(10, 0), at(11, 0), 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if store.reads != 0 {
		t.Fatalf("store must not be read after cancellation, saw %d reads", store.reads)
	}
}

func TestCheckReturnsConflictError(t *testing.T) {
	store := newFakeOccupancy()
	store.add(ResourceStaff, 7, Occupancy{BookingID: 1, Start: at(10, 0), End: at(11, 0)})
	c := NewChecker(store)

	err := c.Check(context.Background(), Window{Kind: ResourceStaff, ID: 7, Start: at(10, 30), End: at(11, 30)}, 0)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("want *ConflictError, got %v", err)
	}
	if conflict.Kind != ResourceStaff || conflict.ResourceID != 7 {
		t.Fatalf("conflict names wrong resource: %+v", conflict)
	}
}

func TestCheckerPropagatesStoreError(t *testing.T) {
	store := newFakeOccupancy()
	sentinel := errors.New("boom")
	store.err = sentinel
	c := NewChecker(store)

	_, err := c.IsRoomAvailable(context.Background(), 3, at(10, 0), at(11, 0), 0)
	if !errors.Is(err, sentinel) {
		t.Fatalf("store errors must propagate, got %v", err)
	}
}

func TestLocksSerializeCheckThenCreate(t *testing.T) {
	locks := NewLocks()
	staff := Window{Kind: ResourceStaff, ID: 7}
	room := Window{Kind: ResourceRoom, ID: 3}

	var inCritical int32
	var maxSeen int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Half the goroutines acquire in the opposite argument order;
			// Acquire sorts internally so this must not deadlock.
			var release func()
			if i%2 == 0 {
				release = locks.Acquire(staff, room)
			} else {
				release = locks.Acquire(room, staff)
			}
			defer release()
			mu.Lock()
			inCritical++
			if inCritical > maxSeen {
				maxSeen = inCritical
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inCritical--
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("critical section for the same resources ran %d goroutines at once", maxSeen)
	}
}

func TestLocksIndependentResourcesDoNotBlock(t *testing.T) {
	locks := NewLocks()
	r1 := locks.Acquire(Window{Kind: ResourceStaff, ID: 1})
	done := make(chan struct{})
	go func() {
		r2 := locks.Acquire(Window{Kind: ResourceStaff, ID: 2})
		r2()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("locking staff 2 must not wait on staff 1")
	}
	r1()
}

func TestLocksDuplicateWindowsCollapse(t *testing.T) {
	locks := NewLocks()
	w := Window{Kind: ResourceRoom, ID: 9}
	// Acquiring the same resource twice in one call must not self-deadlock.
	release := locks.Acquire(w, w)
	release()
	// And the resource is usable again afterwards.
	release = locks.Acquire(w)
	release()
}
