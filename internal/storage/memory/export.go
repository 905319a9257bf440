// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BattleExport is the root JSON structure
type BattleExport struct {
	Name     string     `json:"name"`
	Tick     float64    `json:"tick"`
	EndFrame uint       `json:"endFrame"`
	Units    []UnitJSON `json:"units"`
	Events   [][]any    `json:"events"`
}

// UnitJSON is one node of the order of battle.
// Positions is [frame, [x, y], health, dead] per sample and only set for platoons.
type UnitJSON struct {
	ID        uint32  `json:"id"`
	Parent    uint32  `json:"parent"`
	Side      int     `json:"side"`
	Branch    string  `json:"branch"`
	Size      string  `json:"size"`
	Positions [][]any `json:"positions,omitempty"`
}

// exportJSON writes the battle data to a (optionally gzipped) JSON file
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	// Build filename
	name := strings.ReplaceAll(b.battle.Name, " ", "_")
	name = strings.ReplaceAll(name, ":", "_")
	timestamp := b.battle.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", name, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file
	if b.cfg.CompressOutput {
		if err := b.writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := b.writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() BattleExport {
	export := BattleExport{
		Name:   b.battle.Name,
		Tick:   b.battle.Tick,
		Units:  make([]UnitJSON, 0, len(b.order)),
		Events: make([][]any, 0, len(b.events)),
	}

	var maxFrame uint = 0

	for _, id := range b.order {
		record := b.units[id]
		unit := UnitJSON{
			ID:     uint32(record.Unit.EntityID),
			Parent: uint32(record.Unit.ParentID),
			Side:   int(record.Unit.Side),
			Branch: record.Unit.Branch,
			Size:   record.Unit.Size,
		}

		for _, state := range record.States {
			unit.Positions = append(unit.Positions, []any{
				state.Frame,
				[]float64{state.Position.X, state.Position.Y},
				state.Health,
				boolToInt(state.Dead),
			})
			if state.Frame > maxFrame {
				maxFrame = state.Frame
			}
		}

		export.Units = append(export.Units, unit)
	}

	// Format: [frameNum, "kind", senderId, targetId, subjectId]
	for _, evt := range b.events {
		export.Events = append(export.Events, []any{
			evt.Frame,
			evt.Kind,
			uint32(evt.SenderID),
			uint32(evt.TargetID),
			uint32(evt.Subject),
		})
		if evt.Frame > maxFrame {
			maxFrame = evt.Frame
		}
	}

	export.EndFrame = maxFrame
	return export
}

func (b *Backend) writeJSON(path string, data BattleExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func (b *Backend) writeGzipJSON(path string, data BattleExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
