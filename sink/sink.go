// Package sink delivers composed NMEA output to serial ports, sockets,
// brokers and files.
package sink

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Sink receives one epoch of composed sentences at a time. Send must not
// retain p after returning.
type Sink interface {
	Send(p []byte) error
	Close() error
}

// Errors returned by sinks
var (
	ErrInvalidBaudRate = errors.New("baud rate must be positive")
	ErrNoDestination   = errors.New("no destination configured")
	ErrPublishTimeout  = errors.New("publish timed out")
)

type named struct {
	name string
	Sink
}

// Multi fans each epoch out to every sink. A failing sink does not stop the
// others; their errors are joined.
type Multi struct {
	mu    sync.RWMutex
	sinks []named
}

// Add registers s under name, used to label its errors
func (m *Multi) Add(name string, s Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, named{name: name, Sink: s})
}

// Len returns the number of registered sinks
func (m *Multi) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sinks)
}

func (m *Multi) Send(p []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var errs []error
	for _, s := range m.sinks {
		if err := s.Send(p); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink in reverse registration order. Later sends are
// no-ops.
func (m *Multi) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for i := len(m.sinks) - 1; i >= 0; i-- {
		if err := m.sinks[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m.sinks[i].name, err))
		}
	}
	m.sinks = nil
	return errors.Join(errs...)
}

// Writer adapts an io.Writer such as stdout or a serial port
type Writer struct {
	w io.Writer
	c io.Closer
}

// NewWriter returns a sink writing to w. Close does not close w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) Send(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	_, err := w.w.Write(p)
	return err
}

func (w *Writer) Close() error {
	if w.c == nil {
		return nil
	}
	return w.c.Close()
}
