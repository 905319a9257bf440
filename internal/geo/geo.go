package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/OCAP2/orbat/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Positions are stored in the flat simulation frame. SQLite has no spatial
// types, so points are persisted as WKT text that both backends can read.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// PointFromVec converts a simulation position to a 2D point. NaN or
// infinite coordinates give ErrInvalidCoordinates.
func PointFromVec(v core.Vec2) (geom.Point, error) {
	point, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: v.X, Y: v.Y},
		Type: geom.DimXY,
	})
	if err != nil {
		return geom.Point{}, fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return point, nil
}

// VecFromPoint converts a point back to a simulation position. It reports
// false for an empty point.
func VecFromPoint(p geom.Point) (core.Vec2, bool) {
	xy, ok := p.XY()
	if !ok {
		return core.Vec2{}, false
	}
	return core.Vec2{X: xy.X, Y: xy.Y}, true
}

// PointWKT returns v as WKT, e.g. "POINT(1 2)".
func PointWKT(v core.Vec2) (string, error) {
	point, err := PointFromVec(v)
	if err != nil {
		return "", err
	}
	return point.AsText(), nil
}

// VecFromWKT parses a WKT point.
func VecFromWKT(wkt string) (core.Vec2, error) {
	g, err := geom.UnmarshalWKT(wkt)
	if err != nil {
		return core.Vec2{}, fmt.Errorf("failed to parse WKT: %w", err)
	}
	if g.Type() != geom.TypePoint {
		return core.Vec2{}, fmt.Errorf("%w: %s is not a point", ErrInvalidCoordinates, g.Type())
	}
	v, ok := VecFromPoint(g.Centroid())
	if !ok {
		return core.Vec2{}, ErrInvalidCoordinates
	}
	return v, nil
}

// ParseVec parses either a WKT point or a "x,y" pair.
func ParseVec(s string) (core.Vec2, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToUpper(s), "POINT") {
		return VecFromWKT(s)
	}
	return VecFromString(s)
}

// VecFromString parses a "x,y" string.
func VecFromString(coords string) (core.Vec2, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return core.Vec2{}, ErrInvalidCoordinates
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return core.Vec2{}, ErrInvalidCoordinates
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return core.Vec2{}, ErrInvalidCoordinates
	}
	return core.Vec2{X: x, Y: y}, nil
}
