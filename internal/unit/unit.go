// Package unit models an order of battle: platoons grouped into companies,
// battalions, brigades and armies, each reporting aggregate status and
// reacting to messages through a replaceable controller.
//
// Platoons are the only units with their own position and health. Every
// composite value (position, health, death) is recomputed from its children
// on each call, so callers that need a stable value across a step must copy it.
package unit

import (
	"iter"
	"log/slog"

	"github.com/OCAP2/orbat/internal/message"
	"github.com/OCAP2/orbat/pkg/core"
)

// Unit is any node of an order of battle.
type Unit interface {
	message.Receiver

	Side() core.Side
	Branch() core.ServiceBranch
	Size() core.UnitSize
	// CommandingUnit is the parent, or nil for a top-level unit. It does not own the child.
	CommandingUnit() *Composite

	// Update advances the subtree by dt seconds and returns the platoons that
	// acted this step, in depth-first child order.
	Update(dt float64) []*Platoon
	// Platoons returns every platoon in the subtree, depth-first.
	Platoons() []*Platoon

	Position() core.Vec2
	Health() float64
	IsDead() bool
}

// Controller is the decision strategy bound to one unit.
type Controller[T any] interface {
	// Control runs one step of decision logic and reports whether the unit
	// carried out an action.
	Control(dt float64) bool
	// ReceiveMessage handles a message addressed to the unit.
	ReceiveMessage(m message.Message)
}

// SpatialIndex owns platoon positions for proximity queries.
type SpatialIndex interface {
	Register(p *Platoon)
	Relocate(p *Platoon, old core.Vec2)
	Neighbors(p *Platoon, radius float64) iter.Seq[*Platoon]
	SpeedModifier(p *Platoon) float64
}

// Messenger delivers messages between units.
type Messenger interface {
	Dispatch(m message.Message)
	Enroll(r message.Receiver)
}

// IDSource hands out entity IDs, starting at 1.
type IDSource struct {
	last core.EntityID
}

// Next returns a fresh ID.
func (s *IDSource) Next() core.EntityID {
	s.last++
	return s.last
}

// Env carries the collaborators every unit in a tree shares.
type Env struct {
	Index    SpatialIndex
	Messages Messenger
	IDs      *IDSource
	Logger   *slog.Logger

	// PlatoonController builds the controller of a new platoon. Nil means Idle.
	PlatoonController func(p *Platoon) Controller[*Platoon]
	// CompositeController builds the controller of a new composite. Nil means Idle.
	CompositeController func(c *Composite) Controller[*Composite]
}

// NewEnv returns an Env with a fresh IDSource and the default logger.
func NewEnv(index SpatialIndex, messages Messenger) *Env {
	return &Env{
		Index:    index,
		Messages: messages,
		IDs:      &IDSource{},
		Logger:   slog.Default(),
	}
}

func (e *Env) nextID() core.EntityID {
	if e.IDs == nil {
		e.IDs = &IDSource{}
	}
	return e.IDs.Next()
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Env) platoonController(p *Platoon) Controller[*Platoon] {
	if e.PlatoonController == nil {
		return Idle[*Platoon]{}
	}
	return e.PlatoonController(p)
}

func (e *Env) compositeController(c *Composite) Controller[*Composite] {
	if e.CompositeController == nil {
		return Idle[*Composite]{}
	}
	return e.CompositeController(c)
}

// Idle is a controller that never acts and ignores messages.
type Idle[T any] struct{}

func (Idle[T]) Control(float64) bool { return false }
func (Idle[T]) ReceiveMessage(message.Message) {}

// Distance returns the Euclidean distance between the positions of a and b.
func Distance(a, b Unit) float64 {
	return a.Position().DistanceTo(b.Position())
}

// Walk visits u and every unit below it, parents before children.
// Returning false from fn stops the walk.
func Walk(u Unit, fn func(Unit) bool) bool {
	if !fn(u) {
		return false
	}
	if c, ok := u.(*Composite); ok {
		for _, child := range c.units {
			if !Walk(child, fn) {
				return false
			}
		}
	}
	return true
}
