package transport

import (
	"context"
	"errors"
)

// InMemory pairs two channel-backed endpoints for testing a server without
// a real process boundary. Use NewInMemoryPair to get both ends wired
// together.
type InMemory struct {
	outbound chan<- []byte
	inbound  <-chan []byte
	closed   chan struct{}
}

// NewInMemoryPair returns two Transports, each other's peer: frames sent on
// one arrive on the other's Receive.
func NewInMemoryPair() (*InMemory, *InMemory) {
	aToB := make(chan []byte, 16)
	bToA := make(chan []byte, 16)

	a := &InMemory{outbound: aToB, inbound: bToA, closed: make(chan struct{})}
	b := &InMemory{outbound: bToA, inbound: aToB, closed: make(chan struct{})}
	return a, b
}

func (m *InMemory) Send(ctx context.Context, frame []byte) error {
	select {
	case m.outbound <- frame:
		return nil
	case <-m.closed:
		return errors.New("transport closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *InMemory) Receive(ctx context.Context) ([]byte, error) {
	select {
	case frame, ok := <-m.inbound:
		if !ok {
			return nil, errors.New("transport closed")
		}
		return frame, nil
	case <-m.closed:
		return nil, errors.New("transport closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *InMemory) TypeName() string { return "in-memory" }

func (m *InMemory) Close() error {
	select {
	case <-m.closed:
	default:
		close(m.closed)
	}
	return nil
}
