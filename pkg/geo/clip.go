package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ClipBuffer is the margin in degrees added to every edge of the box before clipping.
const ClipBuffer = 0.0003

// ClipFeatures keeps the parts of fc that fall inside bbox expanded by ClipBuffer.
//
// The coordinate tree of an OSMLR feature is feature -> lines (MultiLineString) ->
// point-groups (LineString) -> points. Points outside the box are dropped first, then every
// level that became empty, bottom-up. Surviving elements keep their order and properties are
// not touched. A new collection is returned; fc is left as is.
func ClipFeatures(fc *geojson.FeatureCollection, bbox BoundingBox) *geojson.FeatureCollection {
	bound := bbox.Expand(ClipBuffer)

	clipped := geojson.NewFeatureCollection()
	if fc == nil {
		return clipped
	}
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		geom, ok := clipGeometry(f.Geometry, bound)
		if !ok {
			continue
		}
		nf := *f
		nf.Geometry = geom
		clipped.Append(&nf)
	}
	return clipped
}

func clipGeometry(g orb.Geometry, bound orb.Bound) (orb.Geometry, bool) {
	switch geom := g.(type) {
	case nil:
		return nil, false
	case orb.MultiLineString:
		lines := make(orb.MultiLineString, 0, len(geom))
		for _, ls := range geom {
			points := clipPoints(ls, bound)
			if len(points) == 0 {
				continue
			}
			lines = append(lines, orb.LineString(points))
		}
		if len(lines) == 0 {
			return nil, false
		}
		return lines, true
	case orb.LineString:
		points := clipPoints(geom, bound)
		if len(points) == 0 {
			return nil, false
		}
		return orb.LineString(points), true
	case orb.MultiPoint:
		points := clipPoints(geom, bound)
		if len(points) == 0 {
			return nil, false
		}
		return orb.MultiPoint(points), true
	case orb.Point:
		if !bound.Contains(geom) {
			return nil, false
		}
		return geom, true
	default:
		return g, true
	}
}

func clipPoints(points []orb.Point, bound orb.Bound) []orb.Point {
	kept := make([]orb.Point, 0, len(points))
	for _, p := range points {
		if bound.Contains(p) {
			kept = append(kept, p)
		}
	}
	return kept
}
