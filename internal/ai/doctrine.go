// Package ai holds the reference controllers used by the headless battle:
// a seek-and-engage platoon controller and a reporting command controller.
package ai

import "github.com/OCAP2/orbat/pkg/core"

// Doctrine tunes every controller built from it. Objectives may be updated
// between steps; controllers read them on each Control call.
type Doctrine struct {
	// Firepower is damage per second dealt to a target within EngageRange.
	Firepower   float64
	EngageRange float64
	// ArrivalTolerance is how close a platoon must get to its objective to stop moving.
	ArrivalTolerance float64
	// ReportInterval is the number of seconds between status reports to a commander.
	ReportInterval float64
	// ReportDelay is the signal latency of messages sent up the chain of command.
	ReportDelay float64
	Objectives  map[core.Side]core.Vec2
}

// DefaultDoctrine returns the doctrine used when nothing is configured.
func DefaultDoctrine() *Doctrine {
	return &Doctrine{
		Firepower:        10,
		EngageRange:      1.0,
		ArrivalTolerance: 0.05,
		ReportInterval:   5,
		ReportDelay:      0.5,
		Objectives:       make(map[core.Side]core.Vec2),
	}
}

// Objective returns the point units of side should advance to, if one is set.
func (d *Doctrine) Objective(side core.Side) (core.Vec2, bool) {
	obj, ok := d.Objectives[side]
	return obj, ok
}

// SetObjective points every unit of side at obj.
func (d *Doctrine) SetObjective(side core.Side, obj core.Vec2) {
	if d.Objectives == nil {
		d.Objectives = make(map[core.Side]core.Vec2)
	}
	d.Objectives[side] = obj
}
