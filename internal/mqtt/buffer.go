package mqtt

import "log"

// bufferCapacity is how many messages are kept while the broker is away.
const bufferCapacity = 100

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer keeps the newest messages up to its capacity.
// Not safe for concurrent use; RealPublisher guards it with its mutex.
type ringBuffer struct {
	msgs    []bufferedMsg
	next    int // slot the next push writes
	full    bool
	dropped int // messages overwritten since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{msgs: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	if r.full {
		if r.dropped == 0 {
			log.Printf("mqtt: buffer full (%d messages), dropping oldest", len(r.msgs))
		}
		r.dropped++
	}
	r.msgs[r.next] = msg
	r.next = (r.next + 1) % len(r.msgs)
	if r.next == 0 {
		r.full = true
	}
}

// drainAll returns the buffered messages oldest first and empties the ring.
func (r *ringBuffer) drainAll() []bufferedMsg {
	var out []bufferedMsg
	if r.full {
		out = append(out, r.msgs[r.next:]...)
	}
	out = append(out, r.msgs[:r.next]...)

	if r.dropped > 0 {
		log.Printf("mqtt: %d buffered messages were dropped while disconnected", r.dropped)
	}
	for i := range r.msgs {
		r.msgs[i] = bufferedMsg{}
	}
	r.next = 0
	r.full = false
	r.dropped = 0

	if len(out) == 0 {
		return nil
	}
	return out
}

func (r *ringBuffer) len() int {
	if r.full {
		return len(r.msgs)
	}
	return r.next
}
