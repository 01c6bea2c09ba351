package http

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/vlille/internal/core/usecases"
	"github.com/samirrijal/vlille/internal/pkg/metrics"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Network *usecases.Network
	NATS    *nats.Conn

	// LoadDetails makes implicit loads (first read, refresh after an
	// upstream event) fetch every station's live status too.
	LoadDetails bool

	// mu serializes every use of Network; it is not safe for concurrent use.
	mu    sync.Mutex
	stale bool
}

// Invalidate marks the network as outdated; the next request reloads it.
func (d *Dependencies) Invalidate() {
	d.mu.Lock()
	d.stale = true
	d.mu.Unlock()
}

// withNetwork runs fn while holding the network lock, loading the network
// first when it is empty or stale.
func (d *Dependencies) withNetwork(ctx context.Context, fn func(n *usecases.Network) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.Network.Loaded() || d.stale {
		if err := d.load(ctx, d.LoadDetails); err != nil {
			return err
		}
	}
	return fn(d.Network)
}

// reload forces a load, then runs fn with the fresh network.
func (d *Dependencies) reload(ctx context.Context, includeDetails bool, fn func(n *usecases.Network) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.load(ctx, includeDetails); err != nil {
		return err
	}
	return fn(d.Network)
}

func (d *Dependencies) load(ctx context.Context, includeDetails bool) error {
	start := time.Now()
	err := d.Network.Load(ctx, includeDetails)
	metrics.ObserveNetworkLoad(start, d.Network.Len(), err)
	if err != nil {
		return err
	}
	d.stale = false
	return nil
}

func (d *Dependencies) loaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Network.Loaded()
}
