// Package message defines the events units exchange through the dispatcher.
package message

import "github.com/OCAP2/orbat/pkg/core"

// Kind categorises a message.
type Kind uint8

const (
	// EnemyDiscovered is self-addressed by a platoon that spotted an enemy.
	// Payload is the discovered *unit.Platoon.
	EnemyDiscovered Kind = iota + 1
	// UnitDied is sent to the world when a platoon's health crosses zero.
	// Payload is the dead *unit.Platoon.
	UnitDied
	// Attack carries damage from one platoon to another. Payload is a float64.
	Attack
	// UnderFire is escalated to a commanding unit. Payload is the attacker's EntityID.
	UnderFire
	// StatusReport is free-form traffic up the chain of command.
	StatusReport
)

func (k Kind) String() string {
	switch k {
	case EnemyDiscovered:
		return "enemy_discovered"
	case UnitDied:
		return "unit_died"
	case Attack:
		return "attack"
	case UnderFire:
		return "under_fire"
	case StatusReport:
		return "status_report"
	default:
		return "unknown"
	}
}

// Message is a single event routed by the dispatcher.
type Message struct {
	Sender    core.EntityID
	Target    core.EntityID // core.WorldEntityID for world handlers
	Timestamp float64       // simulated seconds, stamped on dispatch
	Delay     float64       // seconds before delivery
	Kind      Kind
	Payload   any
}

// Receiver is anything messages can be addressed to.
type Receiver interface {
	ID() core.EntityID
	ReceiveMessage(m Message)
}
