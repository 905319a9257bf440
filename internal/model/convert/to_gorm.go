// Package convert provides functions to convert core records to GORM models
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/OCAP2/orbat/internal/geo"
	"github.com/OCAP2/orbat/internal/model"
	"github.com/OCAP2/orbat/pkg/core"
	"gorm.io/datatypes"
)

// detailsToJSON converts event details to datatypes.JSON for DB storage.
func detailsToJSON(details map[string]any) datatypes.JSON {
	if len(details) == 0 {
		return datatypes.JSON("{}")
	}
	data, err := json.Marshal(details)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}

// CoreToBattle converts a core.Battle to a GORM model.Battle.
func CoreToBattle(b core.Battle) model.Battle {
	return model.Battle{
		ID:        b.ID,
		Name:      b.Name,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Tick:      b.Tick,
	}
}

// CoreToUnit converts a core.UnitRecord to a GORM model.Unit.
func CoreToUnit(u core.UnitRecord, battleID uint) model.Unit {
	return model.Unit{
		ID:       u.ID,
		BattleID: battleID,
		EntityID: uint32(u.EntityID),
		ParentID: uint32(u.ParentID),
		Side:     int(u.Side),
		Branch:   u.Branch,
		Size:     u.Size,
	}
}

// CoreToPlatoonState converts a core.PlatoonState to a GORM model.PlatoonState.
// It fails when the position cannot be encoded as a point.
func CoreToPlatoonState(s core.PlatoonState, battleID uint) (model.PlatoonState, error) {
	position, err := geo.PointWKT(s.Position)
	if err != nil {
		return model.PlatoonState{}, fmt.Errorf("platoon %d at frame %d: %w", s.EntityID, s.Frame, err)
	}
	return model.PlatoonState{
		ID:       s.ID,
		BattleID: battleID,
		EntityID: uint32(s.EntityID),
		Frame:    s.Frame,
		SimTime:  s.SimTime,
		X:        s.Position.X,
		Y:        s.Position.Y,
		Position: position,
		Health:   s.Health,
		Dead:     s.Dead,
	}, nil
}

// CoreToBattleEvent converts a core.BattleEvent to a GORM model.BattleEvent.
func CoreToBattleEvent(e core.BattleEvent, battleID uint) model.BattleEvent {
	return model.BattleEvent{
		ID:        e.ID,
		BattleID:  battleID,
		Frame:     e.Frame,
		SimTime:   e.SimTime,
		Kind:      e.Kind,
		SenderID:  uint32(e.SenderID),
		TargetID:  uint32(e.TargetID),
		SubjectID: uint32(e.Subject),
		Details:   detailsToJSON(e.Details),
	}
}
