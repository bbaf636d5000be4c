package store

import "context"

// Backend translates between durable storage and the serialized session
// mapping. Implementations are stateless — they perform I/O on each call
// without caching. The store persists the full mapping on every mutation,
// so Save always receives a complete snapshot.
type Backend interface {
	// Load reads the persisted session mapping. A nil slice with nil error
	// means the durable resource does not exist yet.
	Load(ctx context.Context) ([]byte, error)
	// Save writes a complete snapshot of the session mapping, creating or
	// overwriting as needed.
	Save(ctx context.Context, data []byte) error
}
