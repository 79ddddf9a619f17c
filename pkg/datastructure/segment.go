package datastructure

// SegmentID is a decoded OSMLR segment id.
type SegmentID struct {
	Level   uint32 `json:"level"`
	Tile    uint32 `json:"tile"`
	Segment uint32 `json:"segment"`
}

func NewSegmentID(level, tile, segment uint32) SegmentID {
	return SegmentID{
		Level:   level,
		Tile:    tile,
		Segment: segment,
	}
}

func (s SegmentID) TileKey() TileKey {
	return TileKey{Level: s.Level, Tile: s.Tile}
}
