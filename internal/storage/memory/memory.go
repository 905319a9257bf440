// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"sync"

	"github.com/OCAP2/orbat/internal/config"
	"github.com/OCAP2/orbat/pkg/core"
)

// ErrNoBattle is returned when recording before StartBattle.
var ErrNoBattle = errors.New("no battle started")

// UnitEntry groups a unit with all its sampled states
type UnitEntry struct {
	Unit   core.UnitRecord
	States []core.PlatoonState
}

// Backend stores battle data in memory and exports to JSON
type Backend struct {
	cfg    config.MemoryConfig
	battle *core.Battle

	units  map[core.EntityID]*UnitEntry // keyed by EntityID
	order  []core.EntityID              // registration order
	events []core.BattleEvent

	idCounter      uint
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:   cfg,
		units: make(map[core.EntityID]*UnitEntry),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartBattle begins recording a new battle
func (b *Backend) StartBattle(battle *core.Battle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.battle = battle
	b.units = make(map[core.EntityID]*UnitEntry)
	b.order = nil
	b.events = nil
	b.idCounter = 0
	b.lastExportPath = ""

	return nil
}

// EndBattle finalizes and exports the battle data
func (b *Backend) EndBattle() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.battle == nil {
		return ErrNoBattle
	}
	return b.exportJSON()
}

// AddUnit registers a new unit
func (b *Backend) AddUnit(u *core.UnitRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.battle == nil {
		return ErrNoBattle
	}

	b.idCounter++
	u.ID = b.idCounter

	if _, ok := b.units[u.EntityID]; !ok {
		b.order = append(b.order, u.EntityID)
	}
	b.units[u.EntityID] = &UnitEntry{
		Unit:   *u,
		States: make([]core.PlatoonState, 0),
	}
	return nil
}

// RecordPlatoonState records a platoon state sample.
// Samples for unregistered units are ignored.
func (b *Backend) RecordPlatoonState(s *core.PlatoonState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if record, ok := b.units[s.EntityID]; ok {
		record.States = append(record.States, *s)
	}
	return nil
}

// RecordEvent records a battle event
func (b *Backend) RecordEvent(e *core.BattleEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	e.ID = b.idCounter
	b.events = append(b.events, *e)
	return nil
}

// GetUnit returns a copy of the entry for id (for testing)
func (b *Backend) GetUnit(id core.EntityID) (UnitEntry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	record, ok := b.units[id]
	if !ok {
		return UnitEntry{}, false
	}
	return *record, true
}

// Events returns a copy of the recorded events (for testing)
func (b *Backend) Events() []core.BattleEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return append([]core.BattleEvent(nil), b.events...)
}

// GetExportedFilePath returns the path of the last export, empty before EndBattle
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
