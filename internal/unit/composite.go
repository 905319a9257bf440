package unit

import (
	"slices"

	"github.com/OCAP2/orbat/internal/message"
	"github.com/OCAP2/orbat/pkg/core"
)

// Composite is any unit made of other units: a company, battalion, brigade or army.
type Composite struct {
	id        core.EntityID
	side      core.Side
	branch    core.ServiceBranch
	size      core.UnitSize
	commander *Composite

	units      []Unit
	controller Controller[*Composite]
	env        *Env
}

func newComposite(env *Env, commander *Composite, size core.UnitSize, branch core.ServiceBranch, side core.Side) *Composite {
	c := &Composite{
		id:        env.nextID(),
		side:      side,
		branch:    branch,
		size:      size,
		commander: commander,
		env:       env,
	}
	c.controller = env.compositeController(c)
	if env.Messages != nil {
		env.Messages.Enroll(c)
	}
	return c
}

func (c *Composite) ID() core.EntityID { return c.id }
func (c *Composite) Side() core.Side { return c.side }
func (c *Composite) Branch() core.ServiceBranch { return c.branch }
func (c *Composite) Size() core.UnitSize { return c.size }
func (c *Composite) CommandingUnit() *Composite { return c.commander }
func (c *Composite) Controller() Controller[*Composite] { return c.controller }

// SetController replaces the unit's controller. A nil controller makes the unit idle.
func (c *Composite) SetController(ctrl Controller[*Composite]) {
	if ctrl == nil {
		ctrl = Idle[*Composite]{}
	}
	c.controller = ctrl
}

// Units returns the direct subordinates in construction order.
func (c *Composite) Units() []Unit {
	return slices.Clone(c.units)
}

// Update updates every subordinate and collects the platoons that acted.
// Death of the composite does not stop the recursion.
func (c *Composite) Update(dt float64) []*Platoon {
	var active []*Platoon
	for _, u := range c.units {
		active = append(active, u.Update(dt)...)
	}
	return active
}

// Platoons returns every platoon below c, depth first.
func (c *Composite) Platoons() []*Platoon {
	var out []*Platoon
	for _, u := range c.units {
		out = append(out, u.Platoons()...)
	}
	return out
}

// Position is the mean position of the subordinates, or the origin when there are none.
func (c *Composite) Position() core.Vec2 {
	if len(c.units) == 0 {
		return core.Vec2{}
	}
	var sum core.Vec2
	for _, u := range c.units {
		sum = sum.Add(u.Position())
	}
	return sum.Scale(1 / float64(len(c.units)))
}

// Health is the sum of the subordinates' health.
func (c *Composite) Health() float64 {
	var h float64
	for _, u := range c.units {
		h += u.Health()
	}
	return h
}

// IsDead reports whether every subordinate is dead. An empty unit is dead.
func (c *Composite) IsDead() bool {
	for _, u := range c.units {
		if !u.IsDead() {
			return false
		}
	}
	return true
}

// DistanceTo returns the distance between the aggregate positions of c and u.
func (c *Composite) DistanceTo(u Unit) float64 {
	return Distance(c, u)
}

// ReceiveMessage hands m to the controller unchanged.
func (c *Composite) ReceiveMessage(m message.Message) {
	c.controller.ReceiveMessage(m)
}

// Control runs the composite's controller for one step.
func (c *Composite) Control(dt float64) bool {
	return c.controller.Control(dt)
}

// spawnUnitDisplacement returns the offset from the spawn point for the next
// subordinate. Subordinates fill a two-column grid whose spacing grows with
// the echelon; even sides lay it out mirrored.
func (c *Composite) spawnUnitDisplacement() core.Vec2 {
	add := 0.002
	switch c.size {
	case core.SizeDivision:
		add *= 4
		fallthrough
	case core.SizeBrigade:
		add *= 2
		fallthrough
	case core.SizeBattalion:
		add *= 4
		fallthrough
	case core.SizeCompany:
		add *= 4
		fallthrough
	case core.SizePlatoon:
		add *= 8
		fallthrough
	case core.SizeSquad:
		add *= 8
	case core.SizeSingle:
	}

	num := len(c.units)
	if c.side%2 == 0 {
		num = -num
	}
	return core.Vec2{
		X: float64(num%2) * add,
		Y: float64(num/2) * add,
	}
}

func (c *Composite) spawnPoint(origin core.Vec2) core.Vec2 {
	return origin.Add(c.spawnUnitDisplacement())
}
