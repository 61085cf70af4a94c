package handshake

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"tokenauth/internal/credentials"
)

// Event is emitted by a Flow. Message is the popup message type
// (deliverCredentials or authFailure) and Data its payload. Credentials is
// set once a sign-in is detected.
type Event struct {
	Message     string
	Data        map[string]string
	Credentials *credentials.Set
}

// Flow is a running OAuth handshake. Events is closed when the flow ends;
// Err then reports why.
type Flow struct {
	id     string
	events chan Event
	done   chan struct{}
	cancel context.CancelFunc

	once sync.Once
	mu   sync.Mutex
	err  error
}

func newFlow(cancel context.CancelFunc) *Flow {
	return &Flow{
		id:     uuid.NewString(),
		events: make(chan Event, 16),
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// ID identifies the flow in logs.
func (f *Flow) ID() string { return f.id }

// Events streams what the flow observed.
func (f *Flow) Events() <-chan Event { return f.events }

// Done is closed when the flow has ended.
func (f *Flow) Done() <-chan struct{} { return f.done }

// Err returns the error that ended the flow, nil when it completed or was
// closed by the caller.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Close stops the flow and waits for it to end.
func (f *Flow) Close() {
	f.cancel()
	<-f.done
}

func (f *Flow) emit(ctx context.Context, ev Event) {
	select {
	case f.events <- ev:
	case <-ctx.Done():
	}
}

func (f *Flow) finish(err error) {
	f.once.Do(func() {
		f.mu.Lock()
		f.err = err
		f.mu.Unlock()
		f.cancel()
		close(f.events)
		close(f.done)
	})
}
