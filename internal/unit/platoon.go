package unit

import (
	"github.com/OCAP2/orbat/internal/message"
	"github.com/OCAP2/orbat/pkg/core"
)

const (
	// MaxHealth is the health a platoon starts with.
	MaxHealth = 100.0
	// VisibilityInterval is the number of seconds between two visibility scans of a platoon.
	VisibilityInterval = 1.0
	// VisibilityRadius is how far a platoon can see.
	VisibilityRadius = 4.0
	// SeekSpeed scales every MoveTowards step.
	SeekSpeed = 0.1
)

// Platoon is the smallest modeled unit and the only one that owns a position and health.
type Platoon struct {
	id        core.EntityID
	side      core.Side
	branch    core.ServiceBranch
	commander *Composite

	position core.Vec2
	health   float64

	// seconds until the next visibility scan
	visibilityCountdown float64

	controller Controller[*Platoon]
	env        *Env
}

// NewPlatoon creates a platoon at pos, registers it with the spatial index
// and enrolls it with the messenger.
func NewPlatoon(env *Env, commander *Composite, pos core.Vec2, branch core.ServiceBranch, side core.Side) *Platoon {
	p := &Platoon{
		id:        env.nextID(),
		side:      side,
		branch:    branch,
		commander: commander,
		position:  pos,
		health:    MaxHealth,
		env:       env,
	}
	p.controller = env.platoonController(p)
	if env.Index != nil {
		env.Index.Register(p)
	}
	if env.Messages != nil {
		env.Messages.Enroll(p)
	}
	return p
}

func (p *Platoon) ID() core.EntityID { return p.id }
func (p *Platoon) Side() core.Side { return p.side }
func (p *Platoon) Branch() core.ServiceBranch { return p.branch }
func (p *Platoon) Size() core.UnitSize { return core.SizePlatoon }
func (p *Platoon) CommandingUnit() *Composite { return p.commander }
func (p *Platoon) Position() core.Vec2 { return p.position }
func (p *Platoon) Platoons() []*Platoon { return []*Platoon{p} }
func (p *Platoon) Controller() Controller[*Platoon] { return p.controller }

// SetController replaces the platoon's controller. A nil controller makes the platoon idle.
func (p *Platoon) SetController(c Controller[*Platoon]) {
	if c == nil {
		c = Idle[*Platoon]{}
	}
	p.controller = c
}

// Health returns the remaining health, never below zero.
func (p *Platoon) Health() float64 {
	return max(0, p.health)
}

// IsDead reports whether health has dropped to zero or below.
func (p *Platoon) IsDead() bool {
	return p.health <= 0
}

// DistanceTo returns the distance between p and the aggregate position of u.
func (p *Platoon) DistanceTo(u Unit) float64 {
	return Distance(p, u)
}

// Update runs the visibility countdown and the controller. A dead platoon is inert.
func (p *Platoon) Update(dt float64) []*Platoon {
	if p.IsDead() {
		return nil
	}

	p.visibilityCountdown -= dt
	if p.visibilityCountdown <= 0 {
		p.visibilityCountdown = VisibilityInterval
		p.checkVisibility()
	}

	if p.controller.Control(dt) {
		return []*Platoon{p}
	}
	return nil
}

// checkVisibility reports every live enemy platoon within VisibilityRadius to
// the platoon itself.
func (p *Platoon) checkVisibility() {
	if p.env.Index == nil || p.env.Messages == nil {
		return
	}
	for other := range p.env.Index.Neighbors(p, VisibilityRadius) {
		if other == p || other.side == p.side || other.IsDead() {
			continue
		}
		p.env.Messages.Dispatch(message.Message{
			Sender:  p.id,
			Target:  p.id,
			Kind:    message.EnemyDiscovered,
			Payload: other,
		})
	}
}

// seekDirection caps v to unit length. Shorter vectors pass unchanged so that
// movement slows down close to the goal.
func seekDirection(v core.Vec2) core.Vec2 {
	if v.Length() > 1 {
		return v.Normalized()
	}
	return v
}

// MoveTowards moves the platoon along the displacement v for dt seconds.
func (p *Platoon) MoveTowards(v core.Vec2, dt float64) {
	speed := 1.0
	if p.env.Index != nil {
		speed = p.env.Index.SpeedModifier(p)
	}

	old := p.position
	p.position = old.Add(seekDirection(v).Scale(SeekSpeed * dt * speed))
	if p.env.Index != nil {
		p.env.Index.Relocate(p, old)
	}
}

// LoseHealth applies damage. The first time health crosses zero a UnitDied
// message is sent to the world.
func (p *Platoon) LoseHealth(damage float64) {
	wasDead := p.IsDead()
	p.health -= damage
	if wasDead || !p.IsDead() {
		return
	}

	p.env.logger().Debug("platoon destroyed",
		"id", p.id,
		"side", int(p.side),
		"branch", p.branch.String())
	if p.env.Messages != nil {
		p.env.Messages.Dispatch(message.Message{
			Sender:  p.id,
			Target:  core.WorldEntityID,
			Kind:    message.UnitDied,
			Payload: p,
		})
	}
}

// ReceiveMessage hands m to the controller unchanged.
func (p *Platoon) ReceiveMessage(m message.Message) {
	p.controller.ReceiveMessage(m)
}
