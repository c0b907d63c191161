package content

// Policy decides what happens when a Queue reaches its end.
type Policy string

const (
	// Wrap restarts from the first element.
	Wrap Policy = "wrap"
	// NoRepeat exhausts the queue; Next returns false forever after.
	NoRepeat Policy = "noRepeat"
)

// Queue is a finite, consumable ordered sequence. The zero value is an empty,
// exhausted queue.
type Queue[T any] struct {
	items  []T
	policy Policy
	cursor int
	served int
}

func NewQueue[T any](items []T, policy Policy) *Queue[T] {
	if policy != NoRepeat {
		policy = Wrap
	}
	copied := make([]T, len(items))
	copy(copied, items)
	return &Queue[T]{items: copied, policy: policy}
}

// Next pulls the next element. It returns false when the queue is empty or a
// NoRepeat queue is exhausted.
func (q *Queue[T]) Next() (T, bool) {
	var zero T
	if q == nil || len(q.items) == 0 {
		return zero, false
	}
	if q.cursor >= len(q.items) {
		if q.policy == NoRepeat {
			return zero, false
		}
		q.cursor = 0
	}
	item := q.items[q.cursor]
	q.cursor++
	q.served++
	return item, true
}

// Exhausted reports whether Next will return false.
func (q *Queue[T]) Exhausted() bool {
	if q == nil || len(q.items) == 0 {
		return true
	}
	return q.policy == NoRepeat && q.cursor >= len(q.items)
}

func (q *Queue[T]) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

// Served counts elements handed out so far.
func (q *Queue[T]) Served() int {
	if q == nil {
		return 0
	}
	return q.served
}

func (q *Queue[T]) Policy() Policy {
	if q == nil {
		return NoRepeat
	}
	return q.policy
}

// Items returns a copy of the underlying elements.
func (q *Queue[T]) Items() []T {
	if q == nil {
		return nil
	}
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}

// Cursor exposes the read position for checkpointing.
func (q *Queue[T]) Cursor() (cursor, served int) {
	if q == nil {
		return 0, 0
	}
	return q.cursor, q.served
}

// Seek restores a read position captured with Cursor.
func (q *Queue[T]) Seek(cursor, served int) {
	if q == nil {
		return
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(q.items) {
		cursor = len(q.items)
	}
	q.cursor = cursor
	q.served = served
}
