package tiles

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/lintang-b-s/osmlr-overlay/pkg"
	"github.com/lintang-b-s/osmlr-overlay/pkg/datastructure"
)

// OSMLR id layout, least significant bits first: 3 bits level, 22 bits tile id,
// 21 bits segment index.
const (
	levelBits   = 3
	tileBits    = 22
	segmentBits = 21

	levelMask   = 1<<levelBits - 1
	tileMask    = 1<<tileBits - 1
	segmentMask = 1<<segmentBits - 1

	tileShift    = levelBits
	segmentShift = levelBits + tileBits

	// MaxSegmentID is the largest raw id representable in the layout.
	MaxSegmentID int64 = 1<<(levelBits+tileBits+segmentBits) - 1
)

func DecodeSegmentID(raw int64) (datastructure.SegmentID, error) {
	if raw < 0 || raw > MaxSegmentID {
		return datastructure.SegmentID{}, pkg.WrapErrorf(pkg.ErrInvalidSegmentID, pkg.ErrBadParamInput,
			"segment id %d outside [0, %d]", raw, MaxSegmentID)
	}
	return datastructure.SegmentID{
		Level:   uint32(raw & levelMask),
		Tile:    uint32((raw >> tileShift) & tileMask),
		Segment: uint32((raw >> segmentShift) & segmentMask),
	}, nil
}

func EncodeSegmentID(id datastructure.SegmentID) (int64, error) {
	if id.Level > levelMask || id.Tile > tileMask || id.Segment > segmentMask {
		return 0, pkg.WrapErrorf(pkg.ErrInvalidSegmentID, pkg.ErrBadParamInput,
			"segment id {level: %d, tile: %d, segment: %d} does not fit the id layout", id.Level, id.Tile, id.Segment)
	}
	return int64(id.Level) | int64(id.Tile)<<tileShift | int64(id.Segment)<<segmentShift, nil
}

// RawSegmentID reads an osmlr_id feature property. GeoJSON decoding yields float64, which is
// exact for every id of the layout.
func RawSegmentID(v interface{}) (int64, error) {
	switch id := v.(type) {
	case float64:
		if math.IsNaN(id) || id != math.Trunc(id) || id < 0 || id > float64(MaxSegmentID) {
			break
		}
		return int64(id), nil
	case int64:
		return id, nil
	case int:
		return int64(id), nil
	case json.Number:
		return id.Int64()
	case string:
		return strconv.ParseInt(id, 10, 64)
	}
	return 0, pkg.WrapErrorf(pkg.ErrInvalidSegmentID, pkg.ErrBadParamInput, "osmlr_id %v is not an integer", v)
}

// UniqueSegmentIDs removes exact duplicates, keeping first occurrences in order.
func UniqueSegmentIDs(raw []int64) []int64 {
	seen := make(map[int64]struct{}, len(raw))
	unique := make([]int64, 0, len(raw))
	for _, id := range raw {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
