package audit

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

type Event struct {
	BusinessID uint
	UserID     *uint
	RequestID  string
	Action     string
	Entity     string
	EntityID   *uint
	Metadata   any
}

// Sink grava um evento. *Logger é a implementação em banco.
type Sink interface {
	Log(ctx context.Context, ev Event) error
}

type Dispatcher struct {
	sink   Sink
	queue  chan Event
	logger zerolog.Logger

	once sync.Once
	done chan struct{}
}

func NewDispatcher(sink Sink, size int, logger zerolog.Logger) *Dispatcher {
	if size <= 0 {
		size = 100
	}

	d := &Dispatcher{
		sink:   sink,
		queue:  make(chan Event, size),
		logger: logger.With().Str("component", "audit").Logger(),
		done:   make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		if err := d.sink.Log(context.Background(), ev); err != nil {
			d.logger.Error().Err(err).
				Str("action", ev.Action).
				Uint("business_id", ev.BusinessID).
				Msg("audit write failed")
		}
	}
}

// Dispatch nunca bloqueia: com a fila cheia o evento é descartado.
func (d *Dispatcher) Dispatch(ev Event) {
	select {
	case d.queue <- ev:
	default:
		d.logger.Warn().Str("action", ev.Action).Msg("audit queue full, dropping event")
	}
}

// Close drena a fila e espera o worker terminar.
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.queue) })
	<-d.done
}
