package mqtt

import (
	"sync"

	"github.com/sweeney/parking-gate/internal/logic"
)

// FakePublisher records published messages for test assertions.
// Safe for concurrent use; read the recorded fields through the accessor
// methods while publishers may still be running.
type FakePublisher struct {
	mu sync.Mutex

	availability   []logic.Status
	passages       []logic.Passage
	systemEvents   []SystemEvent
	systemPayloads [][]byte
	closed         bool
	connected      bool

	// PublishError, if set, is returned by PublishAvailability and PublishPassage.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishAvailability records the status.
func (f *FakePublisher) PublishAvailability(s logic.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.availability = append(f.availability, s)
	return nil
}

// PublishPassage records the passage.
func (f *FakePublisher) PublishPassage(p logic.Passage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.passages = append(f.passages, p)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.systemEvents = append(f.systemEvents, event)
	f.systemPayloads = append(f.systemPayloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// SetConnected controls the return value of IsConnected.
func (f *FakePublisher) SetConnected(connected bool) {
	f.mu.Lock()
	f.connected = connected
	f.mu.Unlock()
}

// Availability returns the published statuses.
func (f *FakePublisher) Availability() []logic.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.Status(nil), f.availability...)
}

// Passages returns the published passages.
func (f *FakePublisher) Passages() []logic.Passage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.Passage(nil), f.passages...)
}

// SystemEvents returns the published system events.
func (f *FakePublisher) SystemEvents() []SystemEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SystemEvent(nil), f.systemEvents...)
}

// SystemPayloads returns the JSON payloads of the published system events.
func (f *FakePublisher) SystemPayloads() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.systemPayloads...)
}

// Closed reports whether Close was called.
func (f *FakePublisher) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reset clears recorded messages and errors.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.availability = nil
	f.passages = nil
	f.systemEvents = nil
	f.systemPayloads = nil
	f.closed = false
	f.connected = false
	f.PublishError = nil
	f.PublishSystemError = nil
}
