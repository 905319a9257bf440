// Package spatial tracks where units are and answers proximity queries.
package spatial

import (
	"iter"
	"math"
	"slices"

	"github.com/OCAP2/orbat/pkg/core"
)

// Entity is anything with a position that can be indexed.
type Entity interface {
	comparable
	Position() core.Vec2
}

// TerrainFunc returns the speed multiplier at a position.
type TerrainFunc func(pos core.Vec2) float64

// FlatTerrain moves everything at full speed.
func FlatTerrain(core.Vec2) float64 { return 1.0 }

type cellKey struct {
	X, Y int
}

// Grid is a uniform bucket grid. Cells are created on demand, so the
// world has no bounds.
// Not safe for concurrent use; the grid must not be mutated while a
// Neighbors sequence is being iterated.
type Grid[T Entity] struct {
	cellSize float64
	cells    map[cellKey][]T
	count    int
	terrain  TerrainFunc
}

// NewGrid creates a grid with the given cell edge length.
// A nil terrain is treated as FlatTerrain.
func NewGrid[T Entity](cellSize float64, terrain TerrainFunc) *Grid[T] {
	if cellSize <= 0 {
		cellSize = 1
	}
	if terrain == nil {
		terrain = FlatTerrain
	}
	return &Grid[T]{
		cellSize: cellSize,
		cells:    make(map[cellKey][]T),
		terrain:  terrain,
	}
}

func (g *Grid[T]) keyFor(pos core.Vec2) cellKey {
	return cellKey{
		X: int(math.Floor(pos.X / g.cellSize)),
		Y: int(math.Floor(pos.Y / g.cellSize)),
	}
}

// Register inserts e at its current position.
func (g *Grid[T]) Register(e T) {
	k := g.keyFor(e.Position())
	g.cells[k] = append(g.cells[k], e)
	g.count++
}

// Relocate moves e from the cell of old to the cell of its current position.
// An entity that was never registered is ignored.
func (g *Grid[T]) Relocate(e T, old core.Vec2) {
	from := g.keyFor(old)
	to := g.keyFor(e.Position())
	if from == to {
		return
	}
	// old may be stale; fall back to a full search
	if !g.removeFrom(from, e) && !g.Remove(e) {
		return
	}
	g.cells[to] = append(g.cells[to], e)
	g.count++
}

// Remove deletes e wherever it is and reports whether it was indexed.
// O(cells) when the cell is unknown.
func (g *Grid[T]) Remove(e T) bool {
	if g.removeFrom(g.keyFor(e.Position()), e) {
		return true
	}
	for k := range g.cells {
		if g.removeFrom(k, e) {
			return true
		}
	}
	return false
}

func (g *Grid[T]) removeFrom(k cellKey, e T) bool {
	cell := g.cells[k]
	i := slices.Index(cell, e)
	if i < 0 {
		return false
	}
	cell = slices.Delete(cell, i, i+1)
	if len(cell) == 0 {
		delete(g.cells, k)
	} else {
		g.cells[k] = cell
	}
	g.count--
	return true
}

// Len returns the number of indexed entities.
func (g *Grid[T]) Len() int {
	return g.count
}

// Neighbors lazily yields every other entity within radius of e.
// Each call returns a fresh sequence; cells are visited row by row, entities
// within a cell in insertion order.
func (g *Grid[T]) Neighbors(e T, radius float64) iter.Seq[T] {
	return func(yield func(T) bool) {
		center := e.Position()
		lo := g.keyFor(core.Vec2{X: center.X - radius, Y: center.Y - radius})
		hi := g.keyFor(core.Vec2{X: center.X + radius, Y: center.Y + radius})

		for y := lo.Y; y <= hi.Y; y++ {
			for x := lo.X; x <= hi.X; x++ {
				for _, other := range g.cells[cellKey{X: x, Y: y}] {
					if other == e {
						continue
					}
					if center.DistanceTo(other.Position()) > radius {
						continue
					}
					if !yield(other) {
						return
					}
				}
			}
		}
	}
}

// SpeedModifier returns the terrain speed multiplier at e's position.
func (g *Grid[T]) SpeedModifier(e T) float64 {
	return g.terrain(e.Position())
}
