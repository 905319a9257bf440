// internal/storage/memory/export_test.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/OCAP2/orbat/internal/config"
	"github.com/OCAP2/orbat/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoolToInt(t *testing.T) {
	tests := []struct {
		input    bool
		expected int
	}{
		{true, 1},
		{false, 0},
	}

	for _, tt := range tests {
		result := boolToInt(tt.input)
		if result != tt.expected {
			t.Errorf("boolToInt(%v) = %d, want %d", tt.input, result, tt.expected)
		}
	}
}

func seedBattle(t *testing.T, b *Backend) {
	t.Helper()
	require.NoError(t, b.AddUnit(&core.UnitRecord{EntityID: 1, Side: 1, Branch: "infantry", Size: "company"}))
	require.NoError(t, b.AddUnit(&core.UnitRecord{EntityID: 2, ParentID: 1, Side: 1, Branch: "infantry", Size: "platoon"}))
	require.NoError(t, b.RecordPlatoonState(&core.PlatoonState{EntityID: 2, Frame: 0, Position: core.Vec2{X: 1, Y: 2}, Health: 100}))
	require.NoError(t, b.RecordPlatoonState(&core.PlatoonState{EntityID: 2, Frame: 20, Position: core.Vec2{X: 1.5, Y: 2}, Health: 0, Dead: true}))
	require.NoError(t, b.RecordEvent(&core.BattleEvent{Frame: 12, Kind: "EnemyDiscovered", SenderID: 2, TargetID: 2, Subject: 9}))
}

func TestBuildExport(t *testing.T) {
	b := newStartedBackend(t, config.MemoryConfig{})
	seedBattle(t, b)

	export := b.buildExport()

	assert.Equal(t, "Test Battle", export.Name)
	assert.Equal(t, 0.1, export.Tick)
	assert.Equal(t, uint(20), export.EndFrame)

	require.Len(t, export.Units, 2)
	assert.Equal(t, uint32(1), export.Units[0].ID)
	assert.Empty(t, export.Units[0].Positions)
	assert.Equal(t, uint32(1), export.Units[1].Parent)
	require.Len(t, export.Units[1].Positions, 2)
	assert.Equal(t, []any{uint(20), []float64{1.5, 2}, 0.0, 1}, export.Units[1].Positions[1])

	require.Len(t, export.Events, 1)
	assert.Equal(t, []any{uint(12), "EnemyDiscovered", uint32(2), uint32(2), uint32(9)}, export.Events[0])
}

func TestBuildExport_EndFrameFromEvents(t *testing.T) {
	b := newStartedBackend(t, config.MemoryConfig{})
	require.NoError(t, b.RecordEvent(&core.BattleEvent{Frame: 42, Kind: "UnitDied"}))

	assert.Equal(t, uint(42), b.buildExport().EndFrame)
}

func TestExportJSON_Plain(t *testing.T) {
	dir := t.TempDir()
	b := newStartedBackend(t, config.MemoryConfig{OutputDir: dir})
	seedBattle(t, b)

	require.NoError(t, b.EndBattle())

	path := b.GetExportedFilePath()
	assert.Equal(t, filepath.Join(dir, "Test_Battle_20240115_103000.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded BattleExport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Test Battle", decoded.Name)
	assert.Len(t, decoded.Units, 2)
	assert.Len(t, decoded.Events, 1)
}

func TestExportJSON_Gzip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	b := newStartedBackend(t, config.MemoryConfig{OutputDir: dir, CompressOutput: true})
	seedBattle(t, b)

	require.NoError(t, b.EndBattle())

	path := b.GetExportedFilePath()
	assert.Equal(t, ".gz", filepath.Ext(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var decoded BattleExport
	require.NoError(t, json.NewDecoder(gz).Decode(&decoded))
	assert.Equal(t, uint(20), decoded.EndFrame)
}

func TestExportJSON_SanitizesName(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir})
	require.NoError(t, b.StartBattle(&core.Battle{Name: "Op: Red Dawn"}))

	require.NoError(t, b.EndBattle())

	assert.Equal(t, "Op__Red_Dawn_00010101_000000.json", filepath.Base(b.GetExportedFilePath()))
}
