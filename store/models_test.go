package store

import "testing"

func TestTourSlotAvailableSpots(t *testing.T) {
	t.Parallel()

	cases := []struct {
		max      int
		bookings int
		want     int
	}{
		{max: 4, bookings: 1, want: 3},
		{max: 4, bookings: 4, want: 0},
		{max: 2, bookings: 5, want: 0},
		{max: 1, bookings: 0, want: 1},
	}
	for _, tc := range cases {
		slot := &TourSlot{MaxCapacity: tc.max, CurrentBookings: tc.bookings}
		if got := slot.AvailableSpots(); got != tc.want {
			t.Fatalf("max=%d bookings=%d: expected %d spots, got %d", tc.max, tc.bookings, tc.want, got)
		}
	}
}

func TestNewIDUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if id == "" {
			t.Fatal("expected non-empty id")
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
