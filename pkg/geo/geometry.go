package geo

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/lintang-b-s/osmlr-overlay/pkg"
	"github.com/paulmach/orb"
)

var validate = validator.New()

// BoundingBox in degrees. A point box (west == east, south == north) is valid.
type BoundingBox struct {
	West  float64 `json:"west" validate:"min=-180,max=180"`
	South float64 `json:"south" validate:"min=-90,max=90"`
	East  float64 `json:"east" validate:"min=-180,max=180,gtefield=West"`
	North float64 `json:"north" validate:"min=-90,max=90,gtefield=South"`
}

func NewBoundingBox(west, south, east, north float64) BoundingBox {
	return BoundingBox{
		West:  west,
		South: south,
		East:  east,
		North: north,
	}
}

// NewBoundingBoxFromBound converts an orb bound (min = south-west, max = north-east).
func NewBoundingBoxFromBound(b orb.Bound) BoundingBox {
	return NewBoundingBox(b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat())
}

func (bb BoundingBox) Validate() error {
	if err := validate.Struct(bb); err != nil {
		return pkg.WrapErrorf(fmt.Errorf("%w: %v", pkg.ErrInvalidBoundingBox, err), pkg.ErrBadParamInput,
			"bounding box [%f, %f, %f, %f] is not valid", bb.West, bb.South, bb.East, bb.North)
	}
	return nil
}

func (bb BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{bb.West, bb.South},
		Max: orb.Point{bb.East, bb.North},
	}
}

// Expand returns the bound grown by buffer degrees on every edge.
func (bb BoundingBox) Expand(buffer float64) orb.Bound {
	return bb.Bound().Pad(buffer)
}

func (bb BoundingBox) Contains(lat, lon float64) bool {
	return bb.Bound().Contains(orb.Point{lon, lat})
}

// SouthWest and NorthEast are the two waypoints used for the route lookup.
func (bb BoundingBox) SouthWest() orb.Point {
	return orb.Point{bb.West, bb.South}
}

func (bb BoundingBox) NorthEast() orb.Point {
	return orb.Point{bb.East, bb.North}
}
