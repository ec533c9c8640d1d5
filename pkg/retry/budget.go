package retry

// DefaultMaxReconnects is the number of consecutive transient failures a
// client tolerates before aborting.
const DefaultMaxReconnects = 20

// Budget counts consecutive transient failures against a fixed maximum.
//
// A Budget is not safe for concurrent use; it belongs to a single client.
type Budget struct {
	max  int
	used int
}

// NewBudget creates a budget that is exhausted after max spends.
// A non-positive max falls back to DefaultMaxReconnects.
func NewBudget(max int) *Budget {
	if max <= 0 {
		max = DefaultMaxReconnects
	}
	return &Budget{max: max}
}

// Exhausted reports whether the counter has reached the maximum.
func (b *Budget) Exhausted() bool {
	return b.used >= b.max
}

// Spend records one transient failure and returns the new count.
func (b *Budget) Spend() int {
	b.used++
	return b.used
}

// Reset sets the counter back to zero.
func (b *Budget) Reset() {
	b.used = 0
}

// Used returns the current counter value.
func (b *Budget) Used() int {
	return b.used
}

// Max returns the abort threshold.
func (b *Budget) Max() int {
	return b.max
}
