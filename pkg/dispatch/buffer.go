package dispatch

// entry pairs a task with its optional completion callback.
type entry[T any] struct {
	task     T
	callback Callback
}

// minBufferCap is the initial capacity allocated on the first push.
const minBufferCap = 16

// buffer is a growable circular FIFO of pending entries. It is not safe for
// concurrent use; the queue guards it with its own mutex.
type buffer[T any] struct {
	items []entry[T]
	head  int
	count int
}

// push appends an entry at the tail, growing the ring when full.
func (b *buffer[T]) push(e entry[T]) {
	if b.count == len(b.items) {
		b.grow()
	}
	b.items[(b.head+b.count)%len(b.items)] = e
	b.count++
}

// pop removes and returns the head entry. The second return value is false
// when the buffer is empty.
func (b *buffer[T]) pop() (entry[T], bool) {
	var zero entry[T]
	if b.count == 0 {
		return zero, false
	}
	e := b.items[b.head]
	b.items[b.head] = zero // release task and callback references
	b.head = (b.head + 1) % len(b.items)
	b.count--
	return e, true
}

// len returns the number of buffered entries.
func (b *buffer[T]) len() int {
	return b.count
}

// grow doubles the ring capacity, unwrapping the entries in FIFO order.
func (b *buffer[T]) grow() {
	capacity := len(b.items) * 2
	if capacity < minBufferCap {
		capacity = minBufferCap
	}
	items := make([]entry[T], capacity)
	for i := 0; i < b.count; i++ {
		items[i] = b.items[(b.head+i)%len(b.items)]
	}
	b.items = items
	b.head = 0
}
