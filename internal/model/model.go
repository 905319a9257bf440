package model

import (
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Battle{},
	&Unit{},
	&PlatoonState{},
	&BattleEvent{},
}

////////////////////////
// BATTLE
////////////////////////

// Battle is one recorded engagement
type Battle struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt time.Time `json:"createdAt"`
	Name      string    `json:"name" gorm:"size:128"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Tick      float64   `json:"tick"` // simulated seconds per frame
}

func (*Battle) TableName() string {
	return "battles"
}

// Unit is one node of an order of battle as deployed
type Unit struct {
	ID       uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	BattleID uint   `json:"battleId" gorm:"index:idx_unit_battle_id"`
	Battle   Battle `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:BattleID;"`
	EntityID uint32 `json:"entityId" gorm:"index:idx_unit_entity_id"`
	ParentID uint32 `json:"parentId"` // 0 for a top-level unit
	Side     int    `json:"side"`
	Branch   string `json:"branch" gorm:"size:32"`
	Size     string `json:"size" gorm:"size:32"`
	// Track is the WKT path of a platoon over the recorded frames
	Track string `json:"track"`
}

func (*Unit) TableName() string {
	return "units"
}

// PlatoonState is a sampled platoon position and strength
type PlatoonState struct {
	ID       uint    `json:"id" gorm:"primarykey;autoIncrement;"`
	BattleID uint    `json:"battleId" gorm:"index:idx_platoonstate_battle_id"`
	Battle   Battle  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:BattleID;"`
	EntityID uint32  `json:"entityId" gorm:"index:idx_platoonstate_entity_id"`
	Frame    uint    `json:"frame" gorm:"index:idx_platoonstate_frame"`
	SimTime  float64 `json:"simTime"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Position string  `json:"position" gorm:"size:64"` // WKT point
	Health   float64 `json:"health"`
	Dead     bool    `json:"dead" gorm:"default:false"`
}

func (*PlatoonState) TableName() string {
	return "platoon_states"
}

// BattleEvent is a recorded message such as a discovery or a death
type BattleEvent struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	BattleID  uint           `json:"battleId" gorm:"index:idx_battleevent_battle_id"`
	Battle    Battle         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:BattleID;"`
	Frame     uint           `json:"frame" gorm:"index:idx_battleevent_frame"`
	SimTime   float64        `json:"simTime"`
	Kind      string         `json:"kind" gorm:"size:32;index:idx_battleevent_kind"`
	SenderID  uint32         `json:"senderId"`
	TargetID  uint32         `json:"targetId"`
	SubjectID uint32         `json:"subjectId"`
	Details   datatypes.JSON `json:"details"`
}

func (*BattleEvent) TableName() string {
	return "battle_events"
}
