package audit

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	mu     sync.Mutex
	events []Event
	block  chan struct{}
	err    error
}

func (s *memSink) Log(_ context.Context, ev Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := &memSink{}
	d := NewDispatcher(sink, 10, zerolog.New(io.Discard))

	d.Dispatch(Event{BusinessID: 1, Action: "appointment.created"})
	d.Dispatch(Event{BusinessID: 1, Action: "appointment.canceled"})
	d.Close()

	require.Len(t, sink.events, 2)
	assert.Equal(t, "appointment.created", sink.events[0].Action)
	assert.Equal(t, "appointment.canceled", sink.events[1].Action)
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &memSink{block: make(chan struct{})}
	d := NewDispatcher(sink, 1, zerolog.New(io.Discard))

	// o worker segura um evento e a fila guarda outro; o resto é descartado
	for i := 0; i < 10; i++ {
		d.Dispatch(Event{Action: "x"})
	}
	close(sink.block)
	d.Close()

	assert.LessOrEqual(t, len(sink.events), 2)
	assert.NotEmpty(t, sink.events)
}

func TestDispatcherSurvivesSinkErrors(t *testing.T) {
	sink := &memSink{err: errors.New("db down")}
	d := NewDispatcher(sink, 4, zerolog.New(io.Discard))

	d.Dispatch(Event{Action: "a"})
	d.Dispatch(Event{Action: "b"})
	d.Close()

	assert.Len(t, sink.events, 2)
}
