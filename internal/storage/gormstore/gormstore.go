// Package gormstore implements the storage.Backend interface on GORM.
// Platoon states and events are buffered and written in batches.
// Works with any dialect internal/database opens (SQLite or Postgres).
package gormstore

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/OCAP2/orbat/internal/config"
	"github.com/OCAP2/orbat/internal/geo"
	"github.com/OCAP2/orbat/internal/model"
	"github.com/OCAP2/orbat/internal/model/convert"
	"github.com/OCAP2/orbat/pkg/core"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultBatchSize = 500

var (
	// ErrNoBattle is returned when recording before StartBattle.
	ErrNoBattle = errors.New("no battle started")
	// ErrNoSchema is returned by Init on a database that was never migrated.
	ErrNoSchema = errors.New("schema not migrated")
)

// Backend implements storage.Backend using GORM with batched writes.
type Backend struct {
	db        *gorm.DB
	batchSize int
	log       *slog.Logger

	mu       sync.Mutex
	battleID uint
	units    map[core.EntityID]uint // EntityID -> units.id
	tracks   map[core.EntityID][]core.Vec2
	states   []model.PlatoonState
	events   []model.BattleEvent
}

// New creates a new GORM storage backend on db.
func New(db *gorm.DB, cfg config.GormConfig, log *slog.Logger) *Backend {
	if log == nil {
		log = slog.Default()
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Backend{
		db:        db,
		batchSize: batchSize,
		log:       log,
		units:     make(map[core.EntityID]uint),
		tracks:    make(map[core.EntityID][]core.Vec2),
	}
}

// Init checks that the schema is in place. database.Manager.Setup migrates it.
func (b *Backend) Init() error {
	migrator := b.db.Migrator()
	for _, m := range model.DatabaseModels {
		if !migrator.HasTable(m) {
			return fmt.Errorf("%w: missing table for %T", ErrNoSchema, m)
		}
	}
	return nil
}

// Close writes anything still buffered.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flush()
}

// StartBattle inserts the battle row and assigns its ID back to battle.
func (b *Backend) StartBattle(battle *core.Battle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.flush(); err != nil {
		return err
	}

	row := convert.CoreToBattle(*battle)
	if err := b.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert battle: %w", err)
	}
	battle.ID = row.ID

	b.battleID = row.ID
	b.units = make(map[core.EntityID]uint)
	b.tracks = make(map[core.EntityID][]core.Vec2)
	return nil
}

// EndBattle flushes buffered rows, stamps the end time and stores each
// platoon's track.
func (b *Backend) EndBattle() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.battleID == 0 {
		return ErrNoBattle
	}
	if err := b.flush(); err != nil {
		return err
	}

	if err := b.db.Model(&model.Battle{}).
		Where("id = ?", b.battleID).
		Update("end_time", time.Now()).Error; err != nil {
		return fmt.Errorf("failed to update battle end time: %w", err)
	}

	var trackErrs []error
	for entity, points := range b.tracks {
		track, err := geo.Track(points)
		if err != nil {
			trackErrs = append(trackErrs, fmt.Errorf("track of unit %d: %w", entity, err))
			continue
		}
		if track.IsEmpty() {
			continue
		}
		if err := b.db.Model(&model.Unit{}).
			Where("id = ?", b.units[entity]).
			Update("track", track.AsText()).Error; err != nil {
			b.log.Error("Failed to store track", "entity", entity, "error", err)
		}
	}

	b.log.Debug("Battle closed", "battle", b.battleID, "units", len(b.units))
	b.battleID = 0
	return errors.Join(trackErrs...)
}

// AddUnit inserts the unit synchronously so its ID is known at once.
func (b *Backend) AddUnit(u *core.UnitRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.battleID == 0 {
		return ErrNoBattle
	}

	row := convert.CoreToUnit(*u, b.battleID)
	if err := b.db.Omit(clause.Associations).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert unit: %w", err)
	}
	u.ID = row.ID
	b.units[u.EntityID] = row.ID
	return nil
}

// RecordPlatoonState buffers a sample, writing the buffer when it is full.
func (b *Backend) RecordPlatoonState(s *core.PlatoonState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.battleID == 0 {
		return ErrNoBattle
	}

	row, err := convert.CoreToPlatoonState(*s, b.battleID)
	if err != nil {
		return err
	}
	b.states = append(b.states, row)
	b.tracks[s.EntityID] = append(b.tracks[s.EntityID], s.Position)
	if len(b.states) >= b.batchSize {
		return b.flush()
	}
	return nil
}

// RecordEvent buffers an event, writing the buffer when it is full.
func (b *Backend) RecordEvent(e *core.BattleEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.battleID == 0 {
		return ErrNoBattle
	}

	b.events = append(b.events, convert.CoreToBattleEvent(*e, b.battleID))
	if len(b.events) >= b.batchSize {
		return b.flush()
	}
	return nil
}

// Pending returns the number of buffered rows.
func (b *Backend) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.states) + len(b.events)
}

// flush writes both buffers. Caller holds mu.
func (b *Backend) flush() error {
	if err := writeBatch(b.db, &b.states, b.batchSize, "platoon states"); err != nil {
		b.log.Error("Error writing batch", "error", err)
		return err
	}
	if err := writeBatch(b.db, &b.events, b.batchSize, "battle events"); err != nil {
		b.log.Error("Error writing batch", "error", err)
		return err
	}
	return nil
}

// writeBatch inserts all buffered items in one transaction and empties the
// buffer on success. On failure the buffer is kept for the next attempt.
func writeBatch[T any](db *gorm.DB, buf *[]T, size int, name string) error {
	if len(*buf) == 0 {
		return nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).CreateInBatches(buf, size).Error
	})
	if err != nil {
		return fmt.Errorf("error creating %s: %w", name, err)
	}
	*buf = (*buf)[:0]
	return nil
}
