package history

import (
	"testing"
	"time"
)

func entryAt(n int, ts time.Time) Entry {
	return Entry{Latitude: float64(n), Longitude: float64(n), Timestamp: ts}
}

func TestRingFIFOEviction(t *testing.T) {
	r := NewRing(1000)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 1500; i++ {
		r.Push(entryAt(i, base.Add(time.Duration(i)*time.Second)))
	}

	if r.Len() != 1000 {
		t.Fatalf("Len = %d, want 1000", r.Len())
	}

	// Pushes #501..#1500 survive, in order.
	entries := r.Entries()
	if entries[0].Latitude != 501 {
		t.Fatalf("oldest retained = %v, want 501", entries[0].Latitude)
	}
	if entries[999].Latitude != 1500 {
		t.Fatalf("newest retained = %v, want 1500", entries[999].Latitude)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Latitude != entries[i-1].Latitude+1 {
			t.Fatalf("order break at %d: %v after %v", i, entries[i].Latitude, entries[i-1].Latitude)
		}
	}
}

func TestRingTail(t *testing.T) {
	r := NewRing(10)
	base := time.Now()
	for i := 1; i <= 5; i++ {
		r.Push(entryAt(i, base))
	}

	tail := r.Tail(3)
	if len(tail) != 3 || tail[0].Latitude != 3 || tail[2].Latitude != 5 {
		t.Fatalf("Tail(3) = %+v", tail)
	}

	all := r.Tail(50)
	if len(all) != 5 {
		t.Fatalf("Tail(50) len = %d, want 5", len(all))
	}
}

func TestRingRange(t *testing.T) {
	r := NewRing(10)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		r.Push(entryAt(i, base.Add(time.Duration(i)*time.Hour)))
	}

	got := r.Range(base.Add(time.Hour), base.Add(3*time.Hour))
	if len(got) != 3 || got[0].Latitude != 1 || got[2].Latitude != 3 {
		t.Fatalf("Range = %+v", got)
	}

	if got := r.Range(time.Time{}, time.Time{}); len(got) != 5 {
		t.Fatalf("unbounded Range len = %d, want 5", len(got))
	}
}

func TestRingDropOlderThan(t *testing.T) {
	r := NewRing(10)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		r.Push(entryAt(i, base.Add(time.Duration(i)*time.Hour)))
	}

	dropped := r.DropOlderThan(base.Add(3 * time.Hour))
	if dropped != 3 {
		t.Fatalf("dropped = %d, want 3", dropped)
	}
	if r.Len() != 3 || r.At(0).Latitude != 3 {
		t.Fatalf("after drop: len=%d first=%v", r.Len(), r.At(0).Latitude)
	}

	// Entry exactly at the cutoff survives.
	if again := r.DropOlderThan(base.Add(3 * time.Hour)); again != 0 {
		t.Fatalf("second drop removed %d entries", again)
	}
}

func TestRingDropAfterWrap(t *testing.T) {
	r := NewRing(4)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		r.Push(entryAt(i, base.Add(time.Duration(i)*time.Hour)))
	}
	// Ring holds 3..6 after wrapping.
	if r.Len() != 4 || r.At(0).Latitude != 3 {
		t.Fatalf("precondition: len=%d first=%v", r.Len(), r.At(0).Latitude)
	}

	if dropped := r.DropOlderThan(base.Add(5 * time.Hour)); dropped != 2 {
		t.Fatalf("dropped = %d, want 2", dropped)
	}
	if r.Len() != 2 || r.At(0).Latitude != 5 || r.At(1).Latitude != 6 {
		t.Fatalf("after wrap drop: %+v", r.Entries())
	}
}

func TestRingClone(t *testing.T) {
	r := NewRing(4)
	r.Push(entryAt(1, time.Now()))
	cp := r.Clone()
	r.Push(entryAt(2, time.Now()))

	if cp.Len() != 1 || r.Len() != 2 {
		t.Fatalf("clone not independent: clone=%d orig=%d", cp.Len(), r.Len())
	}
}
