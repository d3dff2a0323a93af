package session

import (
	"context"
	"sync"
)

// Client is the slice of the client record the orchestrator needs: a display
// name for greetings and a stored age for the content-generation fallback.
type Client struct {
	ID   string `json:"id"`
	Name string `json:"nome"`
	Age  int    `json:"idade"`
}

// Directory resolves the client and specialist references carried by a
// session. The records themselves are owned by another system.
type Directory interface {
	// Client resolves a client by ID.
	// Returns [ErrNotFound] when the client is unknown.
	Client(ctx context.Context, id string) (Client, error)

	// SpecialistExists reports whether the specialist ID is known.
	SpecialistExists(ctx context.Context, id string) (bool, error)
}

// Compile-time assertion that MemDirectory satisfies Directory.
var _ Directory = (*MemDirectory)(nil)

// MemDirectory is an in-memory Directory for tests and single-node setups
// without an external registry. The zero value is ready to use.
type MemDirectory struct {
	mu          sync.RWMutex
	clients     map[string]Client
	specialists map[string]struct{}
}

// NewMemDirectory returns an initialised MemDirectory.
func NewMemDirectory() *MemDirectory {
	return &MemDirectory{
		clients:     make(map[string]Client),
		specialists: make(map[string]struct{}),
	}
}

// AddClient registers a client.
func (d *MemDirectory) AddClient(c Client) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.clients == nil {
		d.clients = make(map[string]Client)
	}
	d.clients[c.ID] = c
}

// AddSpecialist registers a specialist ID.
func (d *MemDirectory) AddSpecialist(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.specialists == nil {
		d.specialists = make(map[string]struct{})
	}
	d.specialists[id] = struct{}{}
}

// Client implements [Directory.Client].
func (d *MemDirectory) Client(_ context.Context, id string) (Client, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.clients[id]
	if !ok {
		return Client{}, ErrNotFound
	}
	return c, nil
}

// SpecialistExists implements [Directory.SpecialistExists].
func (d *MemDirectory) SpecialistExists(_ context.Context, id string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.specialists[id]
	return ok, nil
}
