package geo

import (
	"fmt"

	"github.com/OCAP2/orbat/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Track builds the path through positions in order. Repeated consecutive
// positions are dropped; a path with fewer than two distinct points is the
// empty line.
func Track(positions []core.Vec2) (geom.LineString, error) {
	coords := make([]float64, 0, len(positions)*2)
	var last core.Vec2
	for i, p := range positions {
		if i > 0 && p == last {
			continue
		}
		coords = append(coords, p.X, p.Y)
		last = p
	}
	if len(coords) < 4 {
		return geom.LineString{}, nil
	}
	ls, err := geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return ls, nil
}
