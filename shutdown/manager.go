// Package shutdown coordinates graceful process shutdown: signal handling,
// draining in-flight generation runs, and ordered cleanup of resources.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"creative_backend/logging"

	"go.uber.org/zap"
)

// ErrClosed is returned by WrapOperation once shutdown has begun.
var ErrClosed = errors.New("shutdown: no longer accepting operations")

// CleanupFunc releases one resource during shutdown.
type CleanupFunc func(ctx context.Context) error

type handler struct {
	name     string
	priority int
	fn       CleanupFunc
	seq      int
}

// Manager coordinates graceful shutdown. A first SIGINT or SIGTERM cancels
// the managed context; a second one forces an immediate exit. Cleanup
// handlers run in priority order, lower values first, after in-flight
// operations drain.
type Manager struct {
	logger  *logging.Logger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	started  bool
	shutdown bool
	handlers []handler

	closed  atomic.Bool
	active  sync.WaitGroup
	count   atomic.Int64
	signals atomic.Int32
	sigChan chan os.Signal
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout sets the shutdown timeout. Default is 60 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		m.timeout = timeout
	}
}

// NewManager creates a Manager ready to coordinate graceful shutdown.
func NewManager(logger *logging.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		logger:  logger,
		timeout: 60 * time.Second,
		ctx:     ctx,
		cancel:  cancel,
		sigChan: make(chan os.Signal, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Context returns the managed context, cancelled when shutdown begins.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Register adds a cleanup function. Lower priority values run first.
//
// Typical priorities:
//   - 0-9: stop accepting work (HTTP server)
//   - 10-19: close storage (database)
//   - 20+: flush logs and final cleanup
func (m *Manager) Register(name string, priority int, fn CleanupFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler{
		name:     name,
		priority: priority,
		fn:       fn,
		seq:      len(m.handlers),
	})
	m.logger.Debug("registered cleanup handler",
		zap.String("name", name),
		zap.Int("priority", priority),
	)
}

// Start begins listening for SIGINT and SIGTERM. The first signal cancels
// the managed context; the second forces os.Exit(1). Safe to call more than
// once.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true

	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range m.sigChan {
			switch m.signals.Add(1) {
			case 1:
				m.logger.Info("received shutdown signal",
					zap.String("signal", sig.String()),
				)
				m.cancel()
			default:
				m.logger.Warn("received second signal, forcing immediate shutdown")
				os.Exit(1)
			}
		}
	}()
}

// Shutdown drains in-flight operations and runs the cleanup handlers in
// priority order. It is idempotent; repeated calls return nil.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	handlers := make([]handler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	m.cancel()
	startTime := time.Now()
	m.logger.Info("initiating graceful shutdown",
		zap.Duration("timeout", m.timeout),
		zap.Int("handlers", len(handlers)),
	)

	// Reject new operations, then wait for active ones.
	m.closed.Store(true)
	if active := m.count.Load(); active > 0 {
		m.logger.Info("waiting for in-flight operations", zap.Int64("active", active))
	}
	if !m.waitWithTimeout(m.timeout) {
		m.logger.Warn("timed out waiting for in-flight operations",
			zap.Int64("remaining", m.count.Load()),
		)
	}

	// Run cleanup with whatever time remains, at least one second.
	remaining := m.timeout - time.Since(startTime)
	if remaining < time.Second {
		remaining = time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), remaining)
	defer cancel()

	sort.SliceStable(handlers, func(i, j int) bool {
		if handlers[i].priority != handlers[j].priority {
			return handlers[i].priority < handlers[j].priority
		}
		return handlers[i].seq < handlers[j].seq
	})

	var failed int
	for _, h := range handlers {
		if err := h.fn(ctx); err != nil {
			failed++
			m.logger.Error("cleanup handler failed",
				zap.String("name", h.name),
				zap.Error(err),
			)
		}
	}

	signal.Stop(m.sigChan)

	if failed > 0 {
		return fmt.Errorf("shutdown had %d errors", failed)
	}
	m.logger.Info("graceful shutdown completed",
		zap.Duration("duration", time.Since(startTime)),
	)
	return nil
}

// Wait blocks until shutdown has been initiated.
func (m *Manager) Wait() {
	<-m.ctx.Done()
}

// WrapOperation runs fn while counting it as in-flight so Shutdown can drain
// it. Returns ErrClosed without running fn once shutdown has begun.
func (m *Manager) WrapOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	if m.closed.Load() {
		m.logger.Debug("operation rejected during shutdown", zap.String("operation", name))
		return ErrClosed
	}
	m.active.Add(1)
	m.count.Add(1)
	defer func() {
		m.count.Add(-1)
		m.active.Done()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.ctx.Done():
		return context.Canceled
	default:
	}

	return fn(ctx)
}

// ActiveOperations returns the count of in-flight operations.
func (m *Manager) ActiveOperations() int64 {
	return m.count.Load()
}

// IsShuttingDown reports whether shutdown has been initiated.
func (m *Manager) IsShuttingDown() bool {
	return m.closed.Load()
}

// waitWithTimeout waits for in-flight operations up to the given duration.
func (m *Manager) waitWithTimeout(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		m.active.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
