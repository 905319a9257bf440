// Package recorder writes an engagement to a storage backend: the order of
// battle at deployment, sampled platoon states and battle events delivered
// through the dispatcher.
package recorder

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/OCAP2/orbat/internal/dispatcher"
	"github.com/OCAP2/orbat/internal/geo"
	"github.com/OCAP2/orbat/internal/message"
	"github.com/OCAP2/orbat/internal/storage"
	"github.com/OCAP2/orbat/internal/unit"
	"github.com/OCAP2/orbat/pkg/core"
)

// ErrNotStarted is returned when sampling or finishing before Start.
var ErrNotStarted = errors.New("recorder not started")

// Stats counts what the recorder has written.
type Stats struct {
	Units       int
	Samples     int
	Deaths      int
	Discoveries int
	Failures    int
}

// Recorder is the write-only sink between a battle and a storage.Backend.
type Recorder struct {
	store       storage.Backend
	sampleEvery uint
	log         *slog.Logger

	battle   *core.Battle
	platoons []*unit.Platoon
	byID     map[core.EntityID]*unit.Platoon
	stats    Stats
}

// New creates a recorder sampling platoon state every sampleEvery frames
// (every frame when zero).
func New(store storage.Backend, sampleEvery uint, log *slog.Logger) *Recorder {
	if sampleEvery == 0 {
		sampleEvery = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{store: store, sampleEvery: sampleEvery, log: log}
}

// Start opens a battle in the store and registers every unit of armies,
// parents before children.
func (r *Recorder) Start(name string, tick float64, start time.Time, armies []*unit.Composite) error {
	battle := &core.Battle{Name: name, StartTime: start, Tick: tick}
	if err := r.store.StartBattle(battle); err != nil {
		return fmt.Errorf("failed to start battle: %w", err)
	}
	r.battle = battle
	r.platoons = nil
	r.byID = make(map[core.EntityID]*unit.Platoon)
	r.stats = Stats{}

	var addErr error
	for _, army := range armies {
		unit.Walk(army, func(u unit.Unit) bool {
			if addErr = r.store.AddUnit(unitRecord(u)); addErr != nil {
				return false
			}
			r.stats.Units++
			if p, ok := u.(*unit.Platoon); ok {
				r.platoons = append(r.platoons, p)
				r.byID[p.ID()] = p
			}
			return true
		})
		if addErr != nil {
			return fmt.Errorf("failed to add unit: %w", addErr)
		}
	}

	r.log.Info("Recording battle", "battle", name, "units", r.stats.Units, "platoons", len(r.platoons))
	return nil
}

// Attach registers the recorder's world handler for UnitDied on d. With
// discoveries set it also taps EnemyDiscovered traffic.
func (r *Recorder) Attach(d *dispatcher.Dispatcher, discoveries bool) {
	d.Register(message.UnitDied, r.handleUnitDied, dispatcher.Logged())
	if discoveries {
		d.Tap(message.EnemyDiscovered, r.handleEnemyDiscovered)
	}
}

// Sample records every platoon when frame falls on the sampling interval.
func (r *Recorder) Sample(frame uint, clock float64) error {
	if r.battle == nil {
		return ErrNotStarted
	}
	if frame%r.sampleEvery != 0 {
		return nil
	}
	for _, p := range r.platoons {
		state := &core.PlatoonState{
			EntityID: p.ID(),
			Frame:    frame,
			SimTime:  clock,
			Position: p.Position(),
			Health:   p.Health(),
			Dead:     p.IsDead(),
		}
		if err := r.store.RecordPlatoonState(state); err != nil {
			r.stats.Failures++
			return fmt.Errorf("failed to record platoon %d: %w", p.ID(), err)
		}
		r.stats.Samples++
	}
	return nil
}

// Finish closes the battle in the store.
func (r *Recorder) Finish() error {
	if r.battle == nil {
		return ErrNotStarted
	}
	if err := r.store.EndBattle(); err != nil {
		return fmt.Errorf("failed to end battle: %w", err)
	}
	r.log.Info("Battle recorded",
		"battle", r.battle.Name,
		"samples", r.stats.Samples,
		"deaths", r.stats.Deaths,
		"discoveries", r.stats.Discoveries,
	)
	if ex, ok := r.store.(storage.Exportable); ok {
		r.log.Info("Battle exported", "path", ex.GetExportedFilePath())
	}
	r.battle = nil
	return nil
}

// Stats returns the counters so far.
func (r *Recorder) Stats() Stats {
	return r.stats
}

func (r *Recorder) handleUnitDied(m message.Message) error {
	p, ok := m.Payload.(*unit.Platoon)
	if !ok {
		return fmt.Errorf("unit died: unexpected payload %T", m.Payload)
	}
	details := map[string]any{
		"side":   int(p.Side()),
		"branch": p.Branch().String(),
	}
	if wkt, err := geo.PointWKT(p.Position()); err == nil {
		details["position"] = wkt
	} else {
		r.log.Warn("Death position not recorded", "unit", p.ID(), "error", err)
	}
	err := r.record(m, p.ID(), details)
	if err == nil {
		r.stats.Deaths++
	}
	return err
}

func (r *Recorder) handleEnemyDiscovered(m message.Message) error {
	other, ok := m.Payload.(*unit.Platoon)
	if !ok {
		return fmt.Errorf("enemy discovered: unexpected payload %T", m.Payload)
	}
	details := map[string]any{"side": int(other.Side())}
	if d, ok := r.distance(m.Sender, other); ok {
		details["distance"] = d
	}
	err := r.record(m, other.ID(), details)
	if err == nil {
		r.stats.Discoveries++
	}
	return err
}

func (r *Recorder) record(m message.Message, subject core.EntityID, details map[string]any) error {
	if r.battle == nil {
		return ErrNotStarted
	}
	e := &core.BattleEvent{
		Frame:    r.frameAt(m.Timestamp),
		SimTime:  m.Timestamp,
		Kind:     m.Kind.String(),
		SenderID: m.Sender,
		TargetID: m.Target,
		Subject:  subject,
		Details:  details,
	}
	if err := r.store.RecordEvent(e); err != nil {
		r.stats.Failures++
		return fmt.Errorf("failed to record %s: %w", m.Kind, err)
	}
	return nil
}

// frameAt converts a dispatch timestamp to the frame it was sent in.
func (r *Recorder) frameAt(ts float64) uint {
	if r.battle.Tick <= 0 || ts <= 0 {
		return 0
	}
	return uint(math.Round(ts / r.battle.Tick))
}

func (r *Recorder) distance(id core.EntityID, other *unit.Platoon) (float64, bool) {
	p, ok := r.byID[id]
	if !ok {
		return 0, false
	}
	return p.DistanceTo(other), true
}

func unitRecord(u unit.Unit) *core.UnitRecord {
	rec := &core.UnitRecord{
		EntityID: u.ID(),
		ParentID: core.WorldEntityID,
		Side:     u.Side(),
		Branch:   u.Branch().String(),
		Size:     u.Size().String(),
	}
	if c := u.CommandingUnit(); c != nil {
		rec.ParentID = c.ID()
	}
	return rec
}
