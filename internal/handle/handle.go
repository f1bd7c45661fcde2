// Package handle implements fixed-capacity allocation tables for GL object
// names. A name is a positive uint32; 0 is reserved and never resolves to a
// live object. Names are allocated by scanning for the first unused slot,
// which keeps allocation deterministic for identical call sequences.
//
// The tables track name lifecycle only. GPU-side resources tied to a name
// are owned by the driver and must be released by the caller before the
// name is freed.
package handle

// Table tracks which names of one object kind are live.
//
// Table is not safe for concurrent use. The GL surface that owns it is
// driven from a single goroutine per context.
type Table struct {
	kind string
	used []bool // index 0 unused; len(used) == capacity+1
	live int
}

// NewTable creates a table for the given object kind with a fixed capacity.
// The kind string appears in log output only.
func NewTable(kind string, capacity int) *Table {
	return &Table{
		kind: kind,
		used: make([]bool, capacity+1),
	}
}

// Alloc reserves the lowest unused name and returns it.
// Returns 0 when the table is exhausted.
func (t *Table) Alloc() uint32 {
	for i := 1; i < len(t.used); i++ {
		if !t.used[i] {
			t.used[i] = true
			t.live++
			return uint32(i)
		}
	}
	return 0
}

// Free releases a name. Freeing 0, an out-of-range name, or a name that is
// not in use is a no-op.
func (t *Table) Free(name uint32) {
	if !t.InUse(name) {
		return
	}
	t.used[name] = false
	t.live--
}

// InUse reports whether a name is live. 0 and out-of-range names are never
// in use.
func (t *Table) InUse(name uint32) bool {
	return name != 0 && int(name) < len(t.used) && t.used[name]
}

// Cap returns the fixed capacity of the table.
func (t *Table) Cap() int { return len(t.used) - 1 }

// Len returns the number of live names.
func (t *Table) Len() int { return t.live }

// Kind returns the object kind label the table was created with.
func (t *Table) Kind() string { return t.kind }
