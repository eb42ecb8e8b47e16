// Package transport implements the byte-framed Transport contract
// (SPEC_FULL.md §6): send(frame)/receive()/type_name(), with a stdio
// implementation and an in-process pair for tests. The Content-Length
// framing on the wire is adapted from the teacher's
// features/mcp/runtime/stdiocaller.go readFrame/writeMessage helpers,
// generalized from JSON-RPC messages to opaque byte frames.
package transport

import (
	"context"
)

// Transport is the core's byte-oriented boundary to the outside world.
// Framing, encoding, and connection lifecycle are transport-specific.
type Transport interface {
	Send(ctx context.Context, frame []byte) error
	Receive(ctx context.Context) ([]byte, error)
	TypeName() string
	Close() error
}
