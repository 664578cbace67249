package services

import "sync"

// ExecutionGuard serializes simulation mutations against reads. Day advances,
// intraday ticks, deployments, and manual comms take the write side; summaries
// and listings take the read side, so a reader never observes a half-applied
// day transition.
type ExecutionGuard struct {
	mu sync.RWMutex
}

// NewExecutionGuard creates a new guard
func NewExecutionGuard() *ExecutionGuard {
	return &ExecutionGuard{}
}

// Lock acquires the write side
func (g *ExecutionGuard) Lock() { g.mu.Lock() }

// Unlock releases the write side
func (g *ExecutionGuard) Unlock() { g.mu.Unlock() }

// RLock acquires the read side
func (g *ExecutionGuard) RLock() { g.mu.RLock() }

// RUnlock releases the read side
func (g *ExecutionGuard) RUnlock() { g.mu.RUnlock() }
