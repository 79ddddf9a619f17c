package datastructure

// Subtile model info
//
//	@Description	contiguous block of segments of a speed tile with its packed speed array.
//
// speeds holds unitSize/entrySize values per segment, segment-major.
type Subtile struct {
	StartSegmentIndex uint32    `json:"startSegmentIndex"`
	SubtileSegments   uint32    `json:"subtileSegments"`
	TotalSegments     uint32    `json:"totalSegments"`
	UnitSize          uint32    `json:"unitSize"`
	EntrySize         uint32    `json:"entrySize"`
	Speeds            []float64 `json:"speeds"`
}

// TileKey identifies a tile of the hierarchy.
type TileKey struct {
	Level uint32
	Tile  uint32
}

// DataTiles maps a tile to its subtiles in ascending startSegmentIndex order.
type DataTiles map[TileKey][]Subtile

func (d DataTiles) Subtiles(level, tile uint32) ([]Subtile, bool) {
	subtiles, ok := d[TileKey{Level: level, Tile: tile}]
	return subtiles, ok
}
