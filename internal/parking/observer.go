package parking

import (
	"fmt"
	"io"
	"sync"

	"github.com/sweeney/parking-gate/internal/logic"
)

// Observer receives status observations from the Reporter.
// Calls come from the reporter goroutine; implementations should not block
// for long.
type Observer interface {
	ObserveStatus(s logic.Status)
}

// PassageSink receives every decided gate request, after the gate section
// has been released.
type PassageSink interface {
	RecordPassage(p logic.Passage)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s logic.Status)

func (f ObserverFunc) ObserveStatus(s logic.Status) { f(s) }

// PassageSinkFunc adapts a function to PassageSink.
type PassageSinkFunc func(p logic.Passage)

func (f PassageSinkFunc) RecordPassage(p logic.Passage) { f(p) }

// LineWriter prints each observation as one status line.
type LineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLineWriter creates a LineWriter writing to w.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: w}
}

func (l *LineWriter) ObserveStatus(s logic.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s.String())
}
