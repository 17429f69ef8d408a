package schedule

import (
	"testing"
	"time"
)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"partial overlap", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"contained", at(10, 0), at(12, 0), at(10, 30), at(11, 0), true},
		{"touching endpoints do not overlap", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"touching endpoints reversed", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
		{"disjoint", at(8, 0), at(9, 0), at(10, 0), at(11, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd)
			if got != tc.want {
				t.Fatalf("Overlaps(%v,%v,%v,%v) = %v, want %v", tc.aStart, tc.aEnd, tc.bStart, tc.bEnd, got, tc.want)
			}
			// The relation is symmetric: swapping the intervals must not
			// change the answer.
			if sym := Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd); sym != got {
				t.Fatalf("Overlaps is not symmetric for %s", tc.name)
			}
		})
	}
}

func TestOverlapsZeroEndUsesDefaultDuration(t *testing.T) {
	old := DefaultDuration
	DefaultDuration = 60 * time.Minute
	defer func() { DefaultDuration = old }()

	// A window with a zero end time is treated as starting+DefaultDuration.
	// 10:00 with no end behaves as 10:00–11:00.
	if !Overlaps(at(10, 0), time.Time{}, at(10, 30), at(11, 30)) {
		t.Fatal("open-ended window should conflict inside its default span")
	}
	if Overlaps(at(10, 0), time.Time{}, at(11, 0), at(12, 0)) {
		t.Fatal("open-ended window should end exactly DefaultDuration after start")
	}

	// The default is configurable; a shorter default shrinks the window.
	DefaultDuration = 30 * time.Minute
	if Overlaps(at(10, 0), time.Time{}, at(10, 45), at(11, 30)) {
		t.Fatal("open-ended window should honour the configured default duration")
	}
}
