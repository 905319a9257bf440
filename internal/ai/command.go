package ai

import (
	"maps"

	"github.com/OCAP2/orbat/internal/message"
	"github.com/OCAP2/orbat/internal/unit"
	"github.com/OCAP2/orbat/pkg/core"
)

// Status is the payload of a StatusReport.
type Status struct {
	Unit   core.EntityID
	Health float64
	Alive  int
}

// Report summarises what a command has heard from its subordinates.
type Report struct {
	UnderFire     int
	StatusReports int
	Attackers     map[core.EntityID]int
	Subordinates  map[core.EntityID]Status
}

// CommandAI relays contact reports up the chain of command and sends its own
// status to its commander every ReportInterval.
type CommandAI struct {
	unit     *unit.Composite
	messages unit.Messenger
	doctrine *Doctrine

	sinceReport float64
	report      Report
}

// NewCommandAI binds a controller to c.
func NewCommandAI(c *unit.Composite, messages unit.Messenger, doctrine *Doctrine) *CommandAI {
	return &CommandAI{
		unit:     c,
		messages: messages,
		doctrine: doctrine,
		report: Report{
			Attackers:    make(map[core.EntityID]int),
			Subordinates: make(map[core.EntityID]Status),
		},
	}
}

// CommandFactory returns a constructor suitable for unit.Env.CompositeController.
func CommandFactory(messages unit.Messenger, doctrine *Doctrine) func(*unit.Composite) unit.Controller[*unit.Composite] {
	return func(c *unit.Composite) unit.Controller[*unit.Composite] {
		return NewCommandAI(c, messages, doctrine)
	}
}

// Report returns a copy of the collected reports.
func (a *CommandAI) Report() Report {
	r := a.report
	r.Attackers = maps.Clone(a.report.Attackers)
	r.Subordinates = maps.Clone(a.report.Subordinates)
	return r
}

// Control sends a status report to the commander when one is due.
func (a *CommandAI) Control(dt float64) bool {
	commander := a.unit.CommandingUnit()
	if commander == nil {
		return false
	}
	a.sinceReport += dt
	if a.sinceReport < a.doctrine.ReportInterval {
		return false
	}
	a.sinceReport = 0

	alive := 0
	for _, p := range a.unit.Platoons() {
		if !p.IsDead() {
			alive++
		}
	}
	status := Status{
		Unit:   a.unit.ID(),
		Health: a.unit.Health(),
		Alive:  alive,
	}
	a.messages.Dispatch(message.Message{
		Sender:  a.unit.ID(),
		Target:  commander.ID(),
		Delay:   a.doctrine.ReportDelay,
		Kind:    message.StatusReport,
		Payload: status,
	})
	return true
}

func (a *CommandAI) ReceiveMessage(m message.Message) {
	switch m.Kind {
	case message.UnderFire:
		attacker, ok := m.Payload.(core.EntityID)
		if !ok {
			return
		}
		a.report.UnderFire++
		a.report.Attackers[attacker]++
		// only the first report of an attacker goes further up
		if a.report.Attackers[attacker] > 1 {
			return
		}
		if commander := a.unit.CommandingUnit(); commander != nil {
			a.messages.Dispatch(message.Message{
				Sender:  a.unit.ID(),
				Target:  commander.ID(),
				Delay:   a.doctrine.ReportDelay,
				Kind:    message.UnderFire,
				Payload: attacker,
			})
		}
	case message.StatusReport:
		status, ok := m.Payload.(Status)
		if !ok {
			return
		}
		a.report.StatusReports++
		a.report.Subordinates[status.Unit] = status
	}
}
