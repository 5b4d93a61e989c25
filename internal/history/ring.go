package history

import "time"

// Entry is one past position fix kept in a vehicle's history ledger.
type Entry struct {
	Latitude   float64
	Longitude  float64
	SpeedKmh   float64
	HeadingDeg float64
	Altitude   *float64
	Timestamp  time.Time
	Source     string
	Quality    string
}

// Ring is a fixed-capacity, oldest-first ledger of fixes. When full, an
// append evicts from the front, so the capacity bound holds structurally.
type Ring struct {
	buf   []Entry
	head  int
	count int
}

const DefaultCapacity = 1000

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{buf: make([]Entry, capacity)}
}

func (r *Ring) Len() int { return r.count }

func (r *Ring) Cap() int { return len(r.buf) }

// Push appends an entry, evicting the oldest when the ring is full.
func (r *Ring) Push(e Entry) {
	tail := (r.head + r.count) % len(r.buf)
	r.buf[tail] = e
	if r.count < len(r.buf) {
		r.count++
		return
	}
	r.head = (r.head + 1) % len(r.buf)
}

// Clone returns an independent copy of the ring.
func (r *Ring) Clone() *Ring {
	cp := &Ring{buf: make([]Entry, len(r.buf)), head: r.head, count: r.count}
	copy(cp.buf, r.buf)
	return cp
}

// At returns the i-th entry, oldest first.
func (r *Ring) At(i int) Entry {
	return r.buf[(r.head+i)%len(r.buf)]
}

// Entries returns a copy of the ledger, oldest first.
func (r *Ring) Entries() []Entry {
	out := make([]Entry, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.At(i)
	}
	return out
}

// Tail returns a copy of the newest n entries, oldest first.
func (r *Ring) Tail(n int) []Entry {
	if n >= r.count {
		return r.Entries()
	}
	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		out[i] = r.At(r.count - n + i)
	}
	return out
}

// Range returns entries with Timestamp in [start, end], oldest first.
// Zero start or end leaves that side unbounded.
func (r *Ring) Range(start, end time.Time) []Entry {
	var out []Entry
	for i := 0; i < r.count; i++ {
		e := r.At(i)
		if !start.IsZero() && e.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && e.Timestamp.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// DropOlderThan removes entries with Timestamp before cutoff and reports
// how many were dropped. Entries are time-ordered, so this only ever
// trims from the front.
func (r *Ring) DropOlderThan(cutoff time.Time) int {
	dropped := 0
	for r.count > 0 && r.At(0).Timestamp.Before(cutoff) {
		r.head = (r.head + 1) % len(r.buf)
		r.count--
		dropped++
	}
	return dropped
}
