// pkg/core/records.go
package core

import "time"

// Battle is a recorded engagement.
type Battle struct {
	ID        uint
	Name      string
	StartTime time.Time
	EndTime   time.Time
	Tick      float64 // seconds of simulated time per step
}

// UnitRecord describes one node of an order of battle at deployment.
type UnitRecord struct {
	ID       uint
	EntityID EntityID
	ParentID EntityID // WorldEntityID for a top-level unit
	Side     Side
	Branch   string
	Size     string
}

// PlatoonState is a sampled platoon position and strength.
type PlatoonState struct {
	ID       uint
	EntityID EntityID
	Frame    uint
	SimTime  float64
	Position Vec2
	Health   float64
	Dead     bool
}

// BattleEvent is a recorded message such as a discovery or a death.
type BattleEvent struct {
	ID       uint
	Frame    uint
	SimTime  float64
	Kind     string
	SenderID EntityID
	TargetID EntityID
	Subject  EntityID // unit the event is about, if any
	Details  map[string]any
}
