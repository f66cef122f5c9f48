package mqtt

import "log"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages published while the broker is unreachable.
// A retained message replaces any queued message for the same topic, since
// the broker would only keep the last one anyway. Other messages queue in
// order; when full the oldest is dropped.
// Not safe for concurrent use; the caller must synchronize.
type outbox struct {
	msgs     []bufferedMsg
	capacity int
	dropped  int // messages lost since the last drain
}

func newOutbox(capacity int) *outbox {
	return &outbox{capacity: capacity}
}

func (o *outbox) push(msg bufferedMsg) {
	if msg.retained {
		for i, m := range o.msgs {
			if m.retained && m.topic == msg.topic {
				// Keep arrival order: the replacement moves to the back.
				o.msgs = append(o.msgs[:i], o.msgs[i+1:]...)
				break
			}
		}
	}
	if len(o.msgs) >= o.capacity {
		if o.dropped == 0 {
			log.Printf("mqtt: buffer full (%d messages), dropping oldest", o.capacity)
		}
		o.dropped++
		o.msgs = o.msgs[1:]
	}
	o.msgs = append(o.msgs, msg)
}

// requeue puts msgs, which are older than anything queued, back at the
// front. A retained message already superseded in the queue is discarded.
func (o *outbox) requeue(msgs []bufferedMsg) {
	var keep []bufferedMsg
	for _, m := range msgs {
		if m.retained && o.hasRetained(m.topic) {
			continue
		}
		keep = append(keep, m)
	}
	o.msgs = append(keep, o.msgs...)
	for len(o.msgs) > o.capacity {
		o.dropped++
		o.msgs = o.msgs[1:]
	}
}

func (o *outbox) hasRetained(topic string) bool {
	for _, m := range o.msgs {
		if m.retained && m.topic == topic {
			return true
		}
	}
	return false
}

// drain returns the queued messages oldest first, and how many were dropped.
func (o *outbox) drain() ([]bufferedMsg, int) {
	msgs, dropped := o.msgs, o.dropped
	o.msgs = nil
	o.dropped = 0
	return msgs, dropped
}

func (o *outbox) len() int {
	return len(o.msgs)
}
