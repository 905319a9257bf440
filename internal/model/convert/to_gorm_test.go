package convert

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/OCAP2/orbat/internal/geo"
	"github.com/OCAP2/orbat/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreToBattle(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := CoreToBattle(core.Battle{ID: 4, Name: "Kursk", StartTime: start, Tick: 0.5})

	assert.Equal(t, uint(4), b.ID)
	assert.Equal(t, "Kursk", b.Name)
	assert.Equal(t, start, b.StartTime)
	assert.True(t, b.EndTime.IsZero())
	assert.Equal(t, 0.5, b.Tick)
}

func TestCoreToUnit(t *testing.T) {
	u := CoreToUnit(core.UnitRecord{
		EntityID: 12,
		ParentID: 3,
		Side:     2,
		Branch:   "armor",
		Size:     "company",
	}, 9)

	assert.Equal(t, uint(9), u.BattleID)
	assert.Equal(t, uint32(12), u.EntityID)
	assert.Equal(t, uint32(3), u.ParentID)
	assert.Equal(t, 2, u.Side)
	assert.Equal(t, "armor", u.Branch)
	assert.Equal(t, "company", u.Size)
	assert.Empty(t, u.Track)
}

func TestCoreToPlatoonState(t *testing.T) {
	s, err := CoreToPlatoonState(core.PlatoonState{
		EntityID: 7,
		Frame:    30,
		SimTime:  15,
		Position: core.Vec2{X: 1, Y: 2},
		Health:   42.5,
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, uint(1), s.BattleID)
	assert.Equal(t, uint32(7), s.EntityID)
	assert.Equal(t, uint(30), s.Frame)
	assert.Equal(t, 15.0, s.SimTime)
	assert.Equal(t, 1.0, s.X)
	assert.Equal(t, 2.0, s.Y)
	assert.Equal(t, "POINT(1 2)", s.Position)
	assert.Equal(t, 42.5, s.Health)
	assert.False(t, s.Dead)
}

func TestCoreToPlatoonState_InvalidPosition(t *testing.T) {
	_, err := CoreToPlatoonState(core.PlatoonState{
		EntityID: 7,
		Position: core.Vec2{X: math.NaN(), Y: 2},
	}, 1)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
}

func TestCoreToBattleEvent(t *testing.T) {
	e := CoreToBattleEvent(core.BattleEvent{
		Frame:    3,
		SimTime:  1.5,
		Kind:     "unit_died",
		SenderID: 5,
		TargetID: core.WorldEntityID,
		Subject:  5,
		Details:  map[string]any{"side": 2},
	}, 1)

	assert.Equal(t, "unit_died", e.Kind)
	assert.Equal(t, uint32(5), e.SenderID)
	assert.Equal(t, uint32(0), e.TargetID)
	assert.Equal(t, uint32(5), e.SubjectID)

	var details map[string]any
	require.NoError(t, json.Unmarshal(e.Details, &details))
	assert.Equal(t, 2.0, details["side"])
}

func TestDetailsToJSON_Empty(t *testing.T) {
	assert.Equal(t, "{}", string(detailsToJSON(nil)))
	assert.Equal(t, "{}", string(detailsToJSON(map[string]any{})))
}

func TestDetailsToJSON_Unmarshalable(t *testing.T) {
	assert.Equal(t, "{}", string(detailsToJSON(map[string]any{"ch": make(chan int)})))
}
