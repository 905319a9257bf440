package ai

import (
	"github.com/OCAP2/orbat/internal/message"
	"github.com/OCAP2/orbat/internal/unit"
	"github.com/OCAP2/orbat/pkg/core"
)

// PlatoonAI closes on the nearest enemy it has discovered and fires at it
// once in range. Without a target it advances to its side's objective.
type PlatoonAI struct {
	platoon  *unit.Platoon
	messages unit.Messenger
	doctrine *Doctrine

	target *unit.Platoon
	// attackers already reported to the commander
	reported map[core.EntityID]bool
}

// NewPlatoonAI binds a controller to p.
func NewPlatoonAI(p *unit.Platoon, messages unit.Messenger, doctrine *Doctrine) *PlatoonAI {
	return &PlatoonAI{
		platoon:  p,
		messages: messages,
		doctrine: doctrine,
		reported: make(map[core.EntityID]bool),
	}
}

// PlatoonFactory returns a constructor suitable for unit.Env.PlatoonController.
func PlatoonFactory(messages unit.Messenger, doctrine *Doctrine) func(*unit.Platoon) unit.Controller[*unit.Platoon] {
	return func(p *unit.Platoon) unit.Controller[*unit.Platoon] {
		return NewPlatoonAI(p, messages, doctrine)
	}
}

// Target returns the current target, or nil.
func (a *PlatoonAI) Target() *unit.Platoon {
	return a.target
}

func (a *PlatoonAI) Control(dt float64) bool {
	if a.target != nil && a.target.IsDead() {
		a.target = nil
	}

	pos := a.platoon.Position()
	if a.target != nil {
		toTarget := a.target.Position().Sub(pos)
		if toTarget.Length() <= a.doctrine.EngageRange {
			a.messages.Dispatch(message.Message{
				Sender:  a.platoon.ID(),
				Target:  a.target.ID(),
				Kind:    message.Attack,
				Payload: a.doctrine.Firepower * dt,
			})
			return true
		}
		a.platoon.MoveTowards(toTarget, dt)
		return true
	}

	obj, ok := a.doctrine.Objective(a.platoon.Side())
	if !ok {
		return false
	}
	toObj := obj.Sub(pos)
	if toObj.Length() <= a.doctrine.ArrivalTolerance {
		return false
	}
	a.platoon.MoveTowards(toObj, dt)
	return true
}

func (a *PlatoonAI) ReceiveMessage(m message.Message) {
	switch m.Kind {
	case message.EnemyDiscovered:
		enemy, ok := m.Payload.(*unit.Platoon)
		if !ok || enemy.IsDead() {
			return
		}
		if a.target == nil || a.target.IsDead() ||
			a.platoon.DistanceTo(enemy) < a.platoon.DistanceTo(a.target) {
			a.target = enemy
		}
	case message.Attack:
		damage, ok := m.Payload.(float64)
		if !ok {
			return
		}
		a.platoon.LoseHealth(damage)
		a.reportAttacker(m.Sender)
	case message.UnitDied:
		if dead, ok := m.Payload.(*unit.Platoon); ok && dead == a.target {
			a.target = nil
		}
	}
}

func (a *PlatoonAI) reportAttacker(attacker core.EntityID) {
	commander := a.platoon.CommandingUnit()
	if commander == nil || a.reported[attacker] {
		return
	}
	a.reported[attacker] = true
	a.messages.Dispatch(message.Message{
		Sender:  a.platoon.ID(),
		Target:  commander.ID(),
		Delay:   a.doctrine.ReportDelay,
		Kind:    message.UnderFire,
		Payload: attacker,
	})
}
