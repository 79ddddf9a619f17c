package speed

import (
	"github.com/lintang-b-s/osmlr-overlay/pkg"
	"github.com/lintang-b-s/osmlr-overlay/pkg/datastructure"
	"github.com/lintang-b-s/osmlr-overlay/pkg/tiles"
	"github.com/paulmach/orb/geojson"
)

const (
	SegmentIDProperty = "osmlr_id"
	SpeedProperty     = "speed"
)

// Segment is a deduplicated osmlr id together with its decoded form.
type Segment struct {
	RawID int64
	ID    datastructure.SegmentID
}

// Result is the speed lookup of one segment. Speed is only meaningful when OK is set.
type Result struct {
	Segment
	Speed float64
	OK    bool
}

// ExtractSegmentIDs collects the osmlr_id of every feature, in feature order. Features
// without a usable id are skipped.
func ExtractSegmentIDs(fc *geojson.FeatureCollection) []int64 {
	rawIDs := make([]int64, 0, len(fc.Features))
	for _, f := range fc.Features {
		id, err := tiles.RawSegmentID(f.Properties[SegmentIDProperty])
		if err != nil {
			continue
		}
		rawIDs = append(rawIDs, id)
	}
	return rawIDs
}

// ParseSegments deduplicates rawIDs and decodes them. Ids that fail to decode are dropped
// and counted in skipped.
func ParseSegments(rawIDs []int64) (segments []Segment, skipped int) {
	unique := tiles.UniqueSegmentIDs(rawIDs)
	segments = make([]Segment, 0, len(unique))
	for _, raw := range unique {
		id, err := tiles.DecodeSegmentID(raw)
		if err != nil {
			skipped++
			continue
		}
		segments = append(segments, Segment{RawID: raw, ID: id})
	}
	return segments, skipped
}

// OwningSubtile returns the index of the subtile owning segment. A subtile owns
// (startSegmentIndex, startSegmentIndex+subtileSegments], except the last subtile of the
// tile which owns everything up to totalSegments.
func OwningSubtile(subtiles []datastructure.Subtile, segment uint32) (int, bool) {
	for i, subtile := range subtiles {
		upperBound := uint64(subtile.StartSegmentIndex) + uint64(subtile.SubtileSegments)
		if i == len(subtiles)-1 {
			upperBound = uint64(subtile.TotalSegments)
		}
		if uint64(segment) > uint64(subtile.StartSegmentIndex) && uint64(segment) <= upperBound {
			return i, true
		}
	}
	return -1, false
}

// ValueIndex is the position of the hour bucket of segment inside subtile.Speeds.
func ValueIndex(subtile datastructure.Subtile, segment uint32, hour int) (int, error) {
	if subtile.SubtileSegments == 0 || subtile.EntrySize == 0 || subtile.UnitSize%subtile.EntrySize != 0 {
		return 0, pkg.WrapErrorf(pkg.ErrSpeedLookupMiss, pkg.ErrInternalServerError,
			"subtile layout unitSize=%d entrySize=%d subtileSegments=%d is not usable",
			subtile.UnitSize, subtile.EntrySize, subtile.SubtileSegments)
	}

	entriesPerSegment := int(subtile.UnitSize / subtile.EntrySize)
	if hour < 0 || hour >= entriesPerSegment {
		return 0, pkg.WrapErrorf(pkg.ErrSpeedLookupMiss, pkg.ErrBadParamInput,
			"hour %d outside [0, %d)", hour, entriesPerSegment)
	}

	localID := int(segment % subtile.SubtileSegments)
	baseIndex := localID * entriesPerSegment
	return baseIndex + hour, nil
}

// LookupSpeed resolves the speed of one segment for the given hour.
func LookupSpeed(dataTiles datastructure.DataTiles, id datastructure.SegmentID, hour int) (float64, error) {
	subtiles, ok := dataTiles.Subtiles(id.Level, id.Tile)
	if !ok {
		return 0, pkg.WrapErrorf(pkg.ErrSpeedLookupMiss, pkg.ErrNotFound,
			"no data tile for level %d tile %d", id.Level, id.Tile)
	}

	owner, ok := OwningSubtile(subtiles, id.Segment)
	if !ok {
		return 0, pkg.WrapErrorf(pkg.ErrSpeedLookupMiss, pkg.ErrNotFound,
			"no subtile of level %d tile %d owns segment %d", id.Level, id.Tile, id.Segment)
	}

	subtile := subtiles[owner]
	valueIndex, err := ValueIndex(subtile, id.Segment, hour)
	if err != nil {
		return 0, err
	}
	if valueIndex >= len(subtile.Speeds) {
		return 0, pkg.WrapErrorf(pkg.ErrSpeedLookupMiss, pkg.ErrNotFound,
			"speed index %d outside %d speeds of level %d tile %d", valueIndex, len(subtile.Speeds), id.Level, id.Tile)
	}
	return subtile.Speeds[valueIndex], nil
}

// Resolve looks up the speed of every id. A failed lookup never aborts the batch, the
// corresponding result is just left without a speed.
func Resolve(segments []Segment, dataTiles datastructure.DataTiles, hour int) []Result {
	results := make([]Result, len(segments))
	for i, segment := range segments {
		results[i] = Result{Segment: segment}
		speed, err := LookupSpeed(dataTiles, segment.ID, hour)
		if err != nil {
			continue
		}
		results[i].Speed = speed
		results[i].OK = true
	}
	return results
}

// Attach sets the speed property on every feature whose own osmlr_id resolved, including
// features whose id was a duplicate. It returns the number of features that got a speed.
func Attach(fc *geojson.FeatureCollection, results []Result) int {
	speeds := make(map[int64]float64, len(results))
	for _, r := range results {
		if r.OK {
			speeds[r.RawID] = r.Speed
		}
	}

	attached := 0
	for _, f := range fc.Features {
		id, err := tiles.RawSegmentID(f.Properties[SegmentIDProperty])
		if err != nil {
			continue
		}
		speed, ok := speeds[id]
		if !ok {
			continue
		}
		f.Properties[SpeedProperty] = speed
		attached++
	}
	return attached
}
