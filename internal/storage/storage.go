// internal/storage/storage.go
package storage

import "github.com/OCAP2/orbat/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Battle management
	StartBattle(battle *core.Battle) error
	EndBattle() error

	// Unit registration (assigns ID to the passed pointer)
	AddUnit(u *core.UnitRecord) error

	// State recording
	RecordPlatoonState(s *core.PlatoonState) error

	// Event recording
	RecordEvent(e *core.BattleEvent) error
}

// Exportable is an optional interface for storage backends that write
// the finished battle to a single file.
type Exportable interface {
	GetExportedFilePath() string
}
