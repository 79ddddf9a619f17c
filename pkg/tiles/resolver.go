package tiles

import (
	"github.com/lintang-b-s/osmlr-overlay/pkg/geo"
)

// ExcludedLevel carries no OSMLR geometry, its tiles are never requested.
const ExcludedLevel = 2

// ResolveSuffixes returns the path suffixes of the geometry tiles covering bb.
// Same box, same suffixes in the same order.
func ResolveSuffixes(bb geo.BoundingBox) ([]string, error) {
	if err := bb.Validate(); err != nil {
		return nil, err
	}

	tiles := TilesForBbox(bb)
	suffixes := make([]string, 0, len(tiles))
	for _, tile := range tiles {
		if tile.Level == ExcludedLevel {
			continue
		}
		suffixes = append(suffixes, tile.Suffix())
	}
	return suffixes, nil
}
