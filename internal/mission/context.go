package mission

import (
	"sync"
	"sync/atomic"

	"github.com/OCAP2/orbat/pkg/core"
)

// Context holds the battle being simulated and the current frame.
// It is read by log handlers from any goroutine.
type Context struct {
	mu     sync.RWMutex
	Battle *core.Battle

	frame atomic.Uint64
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{
		Battle: &core.Battle{Name: "No battle loaded"},
	}
}

// GetBattle returns the current battle
func (mc *Context) GetBattle() *core.Battle {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.Battle
}

// SetBattle sets the current battle and resets the frame counter
func (mc *Context) SetBattle(battle *core.Battle) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.Battle = battle
	mc.frame.Store(0)
}

// Frame returns the number of completed simulation steps.
func (mc *Context) Frame() uint64 {
	return mc.frame.Load()
}

// Advance increments the frame counter and returns the new value.
func (mc *Context) Advance() uint64 {
	return mc.frame.Add(1)
}
