package unit

import (
	"github.com/OCAP2/orbat/pkg/core"
)

// FanOut is the number of subordinates a company or battalion is built with.
const FanOut = 4

// BrigadeConfig names the branch of a brigade and one branch per battalion in it.
type BrigadeConfig struct {
	Branch     core.ServiceBranch
	Battalions []core.ServiceBranch
}

// NewCompany builds a company of FanOut platoons around pos.
func NewCompany(env *Env, commander *Composite, pos core.Vec2, branch core.ServiceBranch, side core.Side) *Composite {
	c := newComposite(env, commander, core.SizeCompany, branch, side)
	for range FanOut {
		c.units = append(c.units, NewPlatoon(env, c, c.spawnPoint(pos), branch, side))
	}
	return c
}

// NewBattalion builds a battalion of FanOut companies around pos.
func NewBattalion(env *Env, commander *Composite, pos core.Vec2, branch core.ServiceBranch, side core.Side) *Composite {
	c := newComposite(env, commander, core.SizeBattalion, branch, side)
	for range FanOut {
		c.units = append(c.units, NewCompany(env, c, c.spawnPoint(pos), branch, side))
	}
	return c
}

// NewBrigade builds a brigade with one battalion per entry of battalions.
func NewBrigade(env *Env, commander *Composite, pos core.Vec2, branch core.ServiceBranch, side core.Side, battalions []core.ServiceBranch) *Composite {
	c := newComposite(env, commander, core.SizeBrigade, branch, side)
	for _, b := range battalions {
		c.units = append(c.units, NewBattalion(env, c, c.spawnPoint(pos), b, side))
	}
	return c
}

// NewArmy builds a division-sized army with one brigade per entry of brigades.
func NewArmy(env *Env, commander *Composite, pos core.Vec2, branch core.ServiceBranch, side core.Side, brigades []BrigadeConfig) *Composite {
	c := newComposite(env, commander, core.SizeDivision, branch, side)
	for _, b := range brigades {
		c.units = append(c.units, NewBrigade(env, c, c.spawnPoint(pos), b.Branch, side, b.Battalions))
	}
	return c
}
