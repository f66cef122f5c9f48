package parking

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/parking-gate/internal/logic"
)

func newTestReporter(state *State) (*Reporter, *bytes.Buffer) {
	var buf bytes.Buffer
	r := NewReporter(state, time.Millisecond, NewLineWriter(&buf))
	r.now = fakeClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), time.Second)
	return r, &buf
}

func lines(buf *bytes.Buffer) []string {
	s := strings.TrimSpace(buf.String())
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestReporterFirstPollReports(t *testing.T) {
	r, buf := newTestReporter(NewState(3))
	r.poll()

	got := lines(buf)
	want := "Available: 3/3 (Occupied: 0) [Gate: CENTERED]"
	if len(got) != 1 || got[0] != want {
		t.Errorf("expected [%q], got %q", want, got)
	}
}

func TestReporterSuppressesRepeats(t *testing.T) {
	r, buf := newTestReporter(NewState(3))
	for i := 0; i < 10; i++ {
		r.poll()
	}
	if n := len(lines(buf)); n != 1 {
		t.Errorf("expected 1 line for unchanged state, got %d", n)
	}
}

func TestReporterOneLinePerChange(t *testing.T) {
	state := NewState(3)
	r, buf := newTestReporter(state)

	r.poll()
	state.setGate(logic.GateOpeningForEntry)
	r.poll()
	r.poll()
	state.takeSpot()
	r.poll()
	state.setGate(logic.GateCentered)
	r.poll()
	r.poll()

	want := []string{
		"Available: 3/3 (Occupied: 0) [Gate: CENTERED]",
		"Available: 3/3 (Occupied: 0) [Gate: ENTRY]",
		"Available: 2/3 (Occupied: 1) [Gate: ENTRY]",
		"Available: 2/3 (Occupied: 1) [Gate: CENTERED]",
	}
	got := lines(buf)
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestReporterOccupancyIsNotAChange(t *testing.T) {
	state := NewState(3)
	r, buf := newTestReporter(state)

	r.poll()
	state.SetOccupied(0, true)
	r.poll()

	if n := len(lines(buf)); n != 1 {
		t.Errorf("spot occupancy should not produce a status line, got %d lines", n)
	}
}

func TestReporterNotifiesAllObservers(t *testing.T) {
	state := NewState(2)
	var a, b []logic.Status
	r := NewReporter(state, time.Millisecond,
		ObserverFunc(func(s logic.Status) { a = append(a, s) }),
		ObserverFunc(func(s logic.Status) { b = append(b, s) }),
	)

	r.poll()
	state.takeSpot()
	r.poll()

	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("expected 2 observations each, got %d and %d", len(a), len(b))
	}
	if a[1].Available != 1 || b[1].Available != 1 {
		t.Errorf("expected second observation with 1 available, got %d and %d", a[1].Available, b[1].Available)
	}
}

func TestReporterRunStops(t *testing.T) {
	state := NewState(1)
	r, buf := newTestReporter(state)

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	state.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reporter did not stop")
	}
	if n := len(lines(buf)); n != 1 {
		t.Errorf("expected 1 line, got %d", n)
	}
}
