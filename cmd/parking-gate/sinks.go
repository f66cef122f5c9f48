package main

import (
	"log"
	"sync"

	"github.com/sweeney/parking-gate/internal/logic"
	"github.com/sweeney/parking-gate/internal/mqtt"
)

const sinkQueueSize = 64

// recorder is the time series store; nil when InfluxDB is not configured.
type recorder interface {
	RecordPassage(p logic.Passage) error
	RecordAvailability(s logic.Status) error
}

// lotSinks forwards availability changes and gate decisions to MQTT and
// InfluxDB on its own goroutine, so a slow broker or database never delays
// the monitors. Order is preserved. When the queue is full the update is
// dropped and logged.
type lotSinks struct {
	pub mqtt.Publisher
	rec recorder

	mu     sync.Mutex
	jobs   chan func()
	closed bool
	done   chan struct{}
}

func newLotSinks(pub mqtt.Publisher, rec recorder, size int) *lotSinks {
	s := &lotSinks{
		pub:  pub,
		rec:  rec,
		jobs: make(chan func(), size),
		done: make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		for job := range s.jobs {
			job()
		}
	}()
	return s
}

func (s *lotSinks) submit(what string, job func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		log.Printf("sinks: closed, dropping %s", what)
		return
	}
	select {
	case s.jobs <- job:
	default:
		log.Printf("sinks: queue full, dropping %s", what)
	}
}

// ObserveStatus publishes an availability change.
func (s *lotSinks) ObserveStatus(st logic.Status) {
	s.submit("availability", func() {
		if err := s.pub.PublishAvailability(st); err != nil {
			log.Printf("publish availability: %v", err)
		}
		if s.rec != nil {
			if err := s.rec.RecordAvailability(st); err != nil {
				log.Printf("record availability: %v", err)
			}
		}
	})
}

// RecordPassage publishes a gate decision.
func (s *lotSinks) RecordPassage(p logic.Passage) {
	s.submit("passage", func() {
		if err := s.pub.PublishPassage(p); err != nil {
			log.Printf("publish passage: %v", err)
		}
		if s.rec != nil {
			if err := s.rec.RecordPassage(p); err != nil {
				log.Printf("record passage: %v", err)
			}
		}
	})
}

// Close runs the queued work and stops the worker. Safe to call twice.
func (s *lotSinks) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.jobs)
	}
	s.mu.Unlock()
	<-s.done
}
