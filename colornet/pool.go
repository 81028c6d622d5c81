package colornet

import (
	"context"
	"fmt"
	"sync"

	"colorizer/colorize"
)

// PooledNet is a Forwarder checked out of a NetPool.
type PooledNet struct {
	Forwarder
	// poolID identifies the instance within its pool
	poolID int
	inUse  bool
}

// NetPool manages loaded networks for reuse. Networks are created lazily on
// Acquire up to maxSize; a caller that finds the pool at capacity waits until
// a network is released or its context is done.
//
// A single network is not safe for concurrent forward passes, so each Infer
// holds one network exclusively.
type NetPool struct {
	mu      sync.Mutex
	nets    chan *PooledNet
	maxSize int
	files   ModelFiles
	loader  Loader
	closed  bool
	created int
	nextID  int
}

// NewNetPool creates a pool of at most maxSize networks built by loader.
// A nil loader selects NetLoader.
func NewNetPool(maxSize int, files ModelFiles, loader Loader) (*NetPool, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPoolSize, maxSize)
	}
	if loader == nil {
		loader = NetLoader
	}
	return &NetPool{
		nets:    make(chan *PooledNet, maxSize),
		maxSize: maxSize,
		files:   files,
		loader:  loader,
		nextID:  1,
	}, nil
}

// Infer acquires a network, runs one forward pass and releases it.
//
// Errors:
//   - ErrAcquireTimeout: ctx was done before a network became free
//   - ErrPoolClosed: the pool has been closed
//   - any load or forward error from the network
func (p *NetPool) Infer(ctx context.Context, l colorize.Plane) (colorize.Plane, colorize.Plane, error) {
	pn, err := p.Acquire(ctx)
	if err != nil {
		return colorize.Plane{}, colorize.Plane{}, fmt.Errorf("acquire network: %w", err)
	}
	defer p.Release(pn)

	a, b, err := pn.Forward(l)
	if err != nil {
		return colorize.Plane{}, colorize.Plane{}, fmt.Errorf("forward pass: %w", err)
	}
	return a, b, nil
}

// Warm creates one network eagerly so that load errors surface at startup
// instead of on the first request.
func (p *NetPool) Warm(ctx context.Context) error {
	pn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	p.Release(pn)
	return nil
}

// Acquire retrieves a network from the pool, creating one when the pool has
// spare capacity.
func (p *NetPool) Acquire(ctx context.Context) (*PooledNet, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	select {
	case pn := <-p.nets:
		pn.inUse = true
		p.mu.Unlock()
		return pn, nil
	default:
	}

	if p.created < p.maxSize {
		poolID := p.nextID
		p.nextID++
		p.created++
		p.mu.Unlock()

		fw, err := p.loader(p.files)
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, err
		}
		return &PooledNet{Forwarder: fw, poolID: poolID, inUse: true}, nil
	}
	p.mu.Unlock()

	select {
	case pn := <-p.nets:
		if pn == nil {
			return nil, ErrPoolClosed
		}
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			pn.Close()
			return nil, ErrPoolClosed
		}
		pn.inUse = true
		p.mu.Unlock()
		return pn, nil
	case <-ctx.Done():
		return nil, ErrAcquireTimeout
	}
}

// Release returns a network to the pool. After Close the network is freed
// instead. Passing nil is a no-op.
func (p *NetPool) Release(pn *PooledNet) {
	if pn == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pn.inUse = false

	if p.closed {
		pn.Close()
		p.created--
		return
	}

	select {
	case p.nets <- pn:
	default:
		pn.Close()
		p.created--
	}
}

// Close frees every idle network. Networks still acquired are freed when
// released. Close is safe to call multiple times.
func (p *NetPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.nets)

	for pn := range p.nets {
		if pn != nil {
			pn.Close()
			p.created--
		}
	}
	return nil
}

// Size returns the number of idle networks.
func (p *NetPool) Size() int {
	return len(p.nets)
}

// Created returns how many networks exist, idle or acquired.
func (p *NetPool) Created() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

// MaxSize returns the pool capacity.
func (p *NetPool) MaxSize() int {
	return p.maxSize
}

// IsClosed returns whether Close has been called.
func (p *NetPool) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Files returns the model files networks are loaded from.
func (p *NetPool) Files() ModelFiles {
	return p.files
}
