package supervisor

// ring is a bounded FIFO that evicts its oldest entry when full
type ring[T any] struct {
	items []T
	limit int
}

func newRing[T any](limit int) *ring[T] {
	return &ring[T]{items: make([]T, 0, limit), limit: limit}
}

func (r *ring[T]) push(item T) {
	if len(r.items) == r.limit {
		copy(r.items, r.items[1:])
		r.items[len(r.items)-1] = item
		return
	}
	r.items = append(r.items, item)
}

func (r *ring[T]) snapshot() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

func (r *ring[T]) clear() {
	r.items = r.items[:0]
}

func (r *ring[T]) len() int {
	return len(r.items)
}
