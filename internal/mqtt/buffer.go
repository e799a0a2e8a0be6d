package mqtt

// message is a serialized publish held while the broker is unreachable.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog keeps the newest messages up to a fixed capacity, oldest first.
// Not safe for concurrent use; RealPublisher guards it with its mutex.
type backlog struct {
	slots   []message
	next    int // slot the next push writes
	size    int
	dropped int // messages overwritten since the last drain
}

func newBacklog(capacity int) *backlog {
	if capacity < 1 {
		capacity = 1
	}
	return &backlog{slots: make([]message, capacity)}
}

// push stores m, overwriting the oldest message when full.
func (b *backlog) push(m message) {
	b.slots[b.next] = m
	b.next = (b.next + 1) % len(b.slots)
	if b.size == len(b.slots) {
		b.dropped++
		return
	}
	b.size++
}

// drain returns every held message oldest first, the number dropped since
// the previous drain, and empties the backlog.
func (b *backlog) drain() ([]message, int) {
	dropped := b.dropped
	b.dropped = 0
	if b.size == 0 {
		return nil, dropped
	}

	out := make([]message, 0, b.size)
	oldest := (b.next - b.size + len(b.slots)) % len(b.slots)
	for i := 0; i < b.size; i++ {
		out = append(out, b.slots[(oldest+i)%len(b.slots)])
	}
	b.size, b.next = 0, 0
	return out, dropped
}

func (b *backlog) len() int {
	return b.size
}
