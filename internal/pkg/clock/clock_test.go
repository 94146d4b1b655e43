package clock

import (
	"testing"
	"time"
)

func TestFixedClock_AlwaysReturnsSameInstant(t *testing.T) {
	pinned := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("EST", -5*60*60))
	c := NewFixed(pinned)

	got := c.Now()
	if got.Location() != time.UTC {
		t.Fatalf("Now() location = %v, want UTC", got.Location())
	}
	if !got.Equal(pinned) {
		t.Fatalf("Now() = %v, want %v", got, pinned)
	}
	if got2 := c.Now(); !got2.Equal(got) {
		t.Fatal("Fixed clock must return the same instant on every call")
	}
}

func TestRealClock_ReturnsUTC(t *testing.T) {
	c := Real()
	if c.Now().Location() != time.UTC {
		t.Fatal("Real() clock must report UTC")
	}
}
