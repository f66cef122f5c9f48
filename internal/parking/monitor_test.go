package parking

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/parking-gate/internal/gpio"
	"github.com/sweeney/parking-gate/internal/logic"
)

const (
	testSensor   gpio.Pin = 23
	testDebounce          = 500 * time.Millisecond
)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// countingRequest records gate requests and returns outcome.
type countingRequest struct {
	calls   int
	outcome logic.Outcome
	err     error
}

func (c *countingRequest) request() (logic.Outcome, error) {
	c.calls++
	return c.outcome, c.err
}

func newTestGateMonitor(io gpio.IO, req *countingRequest) *GateMonitor {
	m := newGateMonitor("entry", NewState(3), io, testSensor, req.request, testDebounce, 50*time.Millisecond)
	m.now = fakeClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), 50*time.Millisecond)
	return m
}

func TestGateMonitorArrivalRequestsOnce(t *testing.T) {
	io := gpio.NewFakeIO()
	req := &countingRequest{outcome: logic.OutcomeGranted}
	m := newTestGateMonitor(io, req)

	// Clear for a while, then a car sits in front of the sensor.
	for i := 0; i < 5; i++ {
		m.poll()
	}
	io.SetLevel(testSensor, logic.Low)
	for i := 0; i < 40; i++ {
		m.poll()
	}

	if req.calls != 1 {
		t.Errorf("expected exactly 1 gate request, got %d", req.calls)
	}
	if m.edge.Level != logic.Low {
		t.Errorf("expected confirmed level LOW, got %s", m.edge.Level)
	}
}

func TestGateMonitorDepartureDoesNotRequest(t *testing.T) {
	io := gpio.NewFakeIO()
	req := &countingRequest{outcome: logic.OutcomeGranted}
	m := newTestGateMonitor(io, req)

	io.SetLevel(testSensor, logic.Low)
	m.poll()
	if req.calls != 1 {
		t.Fatalf("expected arrival request, got %d", req.calls)
	}

	// Car leaves after the debounce window.
	io.SetLevel(testSensor, logic.High)
	for i := 0; i < 20; i++ {
		m.poll()
	}
	if req.calls != 1 {
		t.Errorf("departure triggered a request: %d calls", req.calls)
	}
	if m.edge.Level != logic.High {
		t.Errorf("expected confirmed level HIGH, got %s", m.edge.Level)
	}
}

func TestGateMonitorFlickerIgnored(t *testing.T) {
	io := gpio.NewFakeIO()
	req := &countingRequest{outcome: logic.OutcomeGranted}
	m := newTestGateMonitor(io, req)

	// First arrival confirmed immediately, then the beam flickers inside
	// the debounce window: no second arrival.
	io.Script(testSensor, logic.Low, logic.High, logic.Low, logic.High, logic.Low, logic.Low)
	for i := 0; i < 6; i++ {
		m.poll()
	}

	if req.calls != 1 {
		t.Errorf("expected 1 request despite flicker, got %d", req.calls)
	}
}

func TestGateMonitorSecondCarAfterWindow(t *testing.T) {
	io := gpio.NewFakeIO()
	req := &countingRequest{outcome: logic.OutcomeGranted}
	m := newTestGateMonitor(io, req)

	io.SetLevel(testSensor, logic.Low)
	m.poll()
	// 600ms later the first car has gone.
	for i := 0; i < 12; i++ {
		m.poll()
	}
	io.SetLevel(testSensor, logic.High)
	m.poll()
	for i := 0; i < 12; i++ {
		m.poll()
	}
	io.SetLevel(testSensor, logic.Low)
	m.poll()

	if req.calls != 2 {
		t.Errorf("expected 2 requests for two cars, got %d", req.calls)
	}
}

func TestGateMonitorReadErrorSkipsCycle(t *testing.T) {
	io := gpio.NewFakeIO()
	req := &countingRequest{outcome: logic.OutcomeGranted}
	m := newTestGateMonitor(io, req)

	io.SetLevel(testSensor, logic.Low)
	io.SetReadError(testSensor, errors.New("gpio fault"))
	for i := 0; i < 3; i++ {
		m.poll()
	}
	if req.calls != 0 {
		t.Fatalf("expected no request while reads fail, got %d", req.calls)
	}
	if !m.failing {
		t.Error("expected monitor to track the failure streak")
	}

	io.SetReadError(testSensor, nil)
	m.poll()
	if req.calls != 1 {
		t.Errorf("expected request after recovery, got %d", req.calls)
	}
	if m.failing {
		t.Error("expected failure streak to end")
	}
}

func TestGateMonitorRequestErrorKeepsEdge(t *testing.T) {
	io := gpio.NewFakeIO()
	req := &countingRequest{err: errors.New("servo stalled")}
	m := newTestGateMonitor(io, req)

	io.SetLevel(testSensor, logic.Low)
	m.poll()
	m.poll()

	if req.calls != 1 {
		t.Errorf("expected one request, got %d", req.calls)
	}
	if m.edge.Level != logic.Low {
		t.Errorf("expected confirmed level LOW, got %s", m.edge.Level)
	}
}

func TestGateMonitorRunStops(t *testing.T) {
	io := gpio.NewFakeIO()
	req := &countingRequest{outcome: logic.OutcomeGranted}
	m := newGateMonitor("exit", NewState(3), io, testSensor, req.request, testDebounce, time.Millisecond)

	done := make(chan struct{})
	go func() {
		m.Run()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	m.state.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
	if io.Reads(testSensor) == 0 {
		t.Error("expected the monitor to poll the sensor")
	}
}

func TestEntryAndExitMonitorsDriveGate(t *testing.T) {
	g, state, act := newTestGate(t, 3)
	io := gpio.NewFakeIO()
	entry := NewEntryMonitor(state, io, 23, g, testDebounce, time.Millisecond)
	exit := NewExitMonitor(state, io, 24, g, testDebounce, time.Millisecond)

	io.SetLevel(23, logic.Low)
	entry.poll()
	if state.Available() != 2 {
		t.Fatalf("expected entry to take a spot, availability %d", state.Available())
	}

	io.SetLevel(24, logic.Low)
	exit.poll()
	if state.Available() != 3 {
		t.Errorf("expected exit to free a spot, availability %d", state.Available())
	}
	if len(act.Pulses()) != 4 {
		t.Errorf("expected two full gate motions, got pulses %v", act.Pulses())
	}
}
