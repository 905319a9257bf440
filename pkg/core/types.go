// pkg/core/types.go
package core

import (
	"errors"
	"fmt"
	"strings"
)

// EntityID identifies a unit for message routing and recording.
type EntityID uint32

// WorldEntityID addresses the world itself rather than any unit.
const WorldEntityID EntityID = 0

// Side is a faction index. Units on different sides are enemies.
type Side int

// UnitSize is the echelon of a unit, smallest first.
type UnitSize uint8

const (
	SizeSingle UnitSize = iota
	SizeSquad
	SizePlatoon
	SizeCompany
	SizeBattalion
	SizeBrigade
	SizeDivision
)

func (s UnitSize) String() string {
	switch s {
	case SizeSingle:
		return "single"
	case SizeSquad:
		return "squad"
	case SizePlatoon:
		return "platoon"
	case SizeCompany:
		return "company"
	case SizeBattalion:
		return "battalion"
	case SizeBrigade:
		return "brigade"
	case SizeDivision:
		return "division"
	default:
		return "unknown"
	}
}

// ServiceBranch is the arm of service a unit belongs to.
type ServiceBranch uint8

const (
	BranchInfantry ServiceBranch = iota
	BranchArmor
	BranchMechanized
	BranchArtillery
	BranchRecon
	BranchEngineer
)

var branchNames = map[ServiceBranch]string{
	BranchInfantry:   "infantry",
	BranchArmor:      "armor",
	BranchMechanized: "mechanized",
	BranchArtillery:  "artillery",
	BranchRecon:      "recon",
	BranchEngineer:   "engineer",
}

// ErrUnknownBranch is returned when a branch name cannot be parsed.
var ErrUnknownBranch = errors.New("unknown service branch")

func (b ServiceBranch) String() string {
	if name, ok := branchNames[b]; ok {
		return name
	}
	return "unknown"
}

// ParseServiceBranch converts a config name such as "armor" into a ServiceBranch.
func ParseServiceBranch(s string) (ServiceBranch, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for b, name := range branchNames {
		if name == want {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBranch, s)
}
