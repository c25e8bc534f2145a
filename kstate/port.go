package kstate

// ringSize is the fixed number of message slots in a port's ring buffer.
const ringSize = 64

// MessageWords is the number of 64-bit words per message: an IPC message
// is exactly 64 bytes viewed as 8 consecutive words.
const MessageWords = 8

// Message is one value-copied IPC payload.
type Message [MessageWords]uint64

// Port is a kernel-hosted, fixed-capacity FIFO of messages. The backing
// ring is owned by the port; no slot is ever shared with another port or
// aliased into user memory.
type Port struct {
	ID       uint32
	OwnerPID uint32

	ring [ringSize]Message
	head int
	tail int
	size int
}

// IsFull reports whether the ring has no free slot.
func (p *Port) IsFull() bool {
	return p.size == ringSize
}

// IsEmpty reports whether the ring holds no message.
func (p *Port) IsEmpty() bool {
	return p.size == 0
}

// Size returns the number of queued messages, in [0, 64].
func (p *Port) Size() int {
	return p.size
}

// Head returns the current head index, in [0, 64).
func (p *Port) Head() int {
	return p.head
}

// Tail returns the current tail index, in [0, 64).
func (p *Port) Tail() int {
	return p.tail
}

// Enqueue writes msg into the slot at tail and advances tail, if the ring
// has room. It reports whether the write happened.
func (p *Port) Enqueue(msg Message) bool {
	if p.IsFull() {
		return false
	}
	p.ring[p.tail] = msg
	p.tail = (p.tail + 1) % ringSize
	p.size++
	return true
}

// Dequeue reads the message at head and advances head, if the ring is
// non-empty. The second return value is false on an empty ring.
func (p *Port) Dequeue() (Message, bool) {
	if p.IsEmpty() {
		return Message{}, false
	}
	msg := p.ring[p.head]
	p.head = (p.head + 1) % ringSize
	p.size--
	return msg, true
}

// newPort returns a freshly initialized, empty port.
func newPort(id, ownerPID uint32) *Port {
	return &Port{ID: id, OwnerPID: ownerPID}
}
