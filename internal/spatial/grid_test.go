package spatial

import (
	"iter"
	"slices"
	"testing"

	"github.com/OCAP2/orbat/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type marker struct {
	name string
	pos  core.Vec2
}

func (m *marker) Position() core.Vec2 { return m.pos }

func collect(seq iter.Seq[*marker]) []string {
	var names []string
	for m := range seq {
		names = append(names, m.name)
	}
	slices.Sort(names)
	return names
}

func TestGrid_NeighborsWithinRadius(t *testing.T) {
	g := NewGrid[*marker](2.0, nil)
	self := &marker{name: "self", pos: core.Vec2{X: 0, Y: 0}}
	near := &marker{name: "near", pos: core.Vec2{X: 3, Y: 0}}
	edge := &marker{name: "edge", pos: core.Vec2{X: 0, Y: -4}}
	far := &marker{name: "far", pos: core.Vec2{X: 4, Y: 4}}

	for _, m := range []*marker{self, near, edge, far} {
		g.Register(m)
	}
	require.Equal(t, 4, g.Len())

	got := collect(g.Neighbors(self, 4.0))
	assert.Equal(t, []string{"edge", "near"}, got)
}

func TestGrid_NeighborsIsFreshPerCall(t *testing.T) {
	g := NewGrid[*marker](1.0, nil)
	self := &marker{name: "self"}
	other := &marker{name: "other", pos: core.Vec2{X: 1}}
	g.Register(self)
	g.Register(other)

	seq := g.Neighbors(self, 2)
	assert.Equal(t, []string{"other"}, collect(seq))
	assert.Equal(t, []string{"other"}, collect(g.Neighbors(self, 2)))
}

func TestGrid_NeighborsStopsEarly(t *testing.T) {
	g := NewGrid[*marker](1.0, nil)
	self := &marker{name: "self"}
	g.Register(self)
	for i := 0; i < 10; i++ {
		g.Register(&marker{name: "m", pos: core.Vec2{X: 0.1 * float64(i)}})
	}

	count := 0
	for range g.Neighbors(self, 5) {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}

func TestGrid_Relocate(t *testing.T) {
	g := NewGrid[*marker](1.0, nil)
	self := &marker{name: "self"}
	mover := &marker{name: "mover", pos: core.Vec2{X: 50, Y: 50}}
	g.Register(self)
	g.Register(mover)

	assert.Empty(t, collect(g.Neighbors(self, 4)))

	old := mover.pos
	mover.pos = core.Vec2{X: 1.5, Y: -0.5}
	g.Relocate(mover, old)

	assert.Equal(t, []string{"mover"}, collect(g.Neighbors(self, 4)))
	assert.Equal(t, 2, g.Len())
}

func TestGrid_RelocateWithinCell(t *testing.T) {
	g := NewGrid[*marker](10.0, nil)
	m := &marker{name: "m", pos: core.Vec2{X: 1}}
	g.Register(m)

	old := m.pos
	m.pos = core.Vec2{X: 2}
	g.Relocate(m, old)

	assert.Equal(t, 1, g.Len())
}

func TestGrid_RelocateWithWrongOldPosition(t *testing.T) {
	g := NewGrid[*marker](1.0, nil)
	m := &marker{name: "m", pos: core.Vec2{X: 5, Y: 5}}
	watcher := &marker{name: "watcher", pos: core.Vec2{X: -20, Y: -20}}
	g.Register(m)
	g.Register(watcher)

	m.pos = core.Vec2{X: -20, Y: -19}
	g.Relocate(m, core.Vec2{X: 100, Y: 100})

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []string{"m"}, collect(g.Neighbors(watcher, 2)))
}

func TestGrid_Remove(t *testing.T) {
	g := NewGrid[*marker](1.0, nil)
	a := &marker{name: "a"}
	b := &marker{name: "b", pos: core.Vec2{X: 0.5}}
	g.Register(a)
	g.Register(b)

	assert.True(t, g.Remove(b))
	assert.False(t, g.Remove(b))

	assert.Equal(t, 1, g.Len())
	assert.Empty(t, collect(g.Neighbors(a, 4)))
}

func TestGrid_RelocateUnregistered(t *testing.T) {
	g := NewGrid[*marker](1.0, nil)
	known := &marker{name: "known"}
	stray := &marker{name: "stray", pos: core.Vec2{X: 3}}
	g.Register(known)

	g.Relocate(stray, core.Vec2{X: -3})

	assert.Equal(t, 1, g.Len())
	assert.Empty(t, collect(g.Neighbors(known, 5)))
}

func TestGrid_NegativeCoordinates(t *testing.T) {
	g := NewGrid[*marker](1.0, nil)
	a := &marker{name: "a", pos: core.Vec2{X: -0.1, Y: -0.1}}
	b := &marker{name: "b", pos: core.Vec2{X: 0.1, Y: 0.1}}
	g.Register(a)
	g.Register(b)

	assert.Equal(t, []string{"b"}, collect(g.Neighbors(a, 0.5)))
}

func TestGrid_SpeedModifier(t *testing.T) {
	mud := func(pos core.Vec2) float64 {
		if pos.X < 0 {
			return 0.5
		}
		return 1.0
	}
	g := NewGrid[*marker](1.0, mud)

	assert.Equal(t, 0.5, g.SpeedModifier(&marker{pos: core.Vec2{X: -3}}))
	assert.Equal(t, 1.0, g.SpeedModifier(&marker{pos: core.Vec2{X: 3}}))
	assert.Equal(t, 1.0, NewGrid[*marker](1.0, nil).SpeedModifier(&marker{}))
}
