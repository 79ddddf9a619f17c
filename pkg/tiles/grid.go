package tiles

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lintang-b-s/osmlr-overlay/pkg/geo"
)

// Level of the tile hierarchy. Tiles of a level are squares of Size degrees numbered
// row-major from the south-west corner (-180, -90).
type Level struct {
	Level uint32
	Size  float64
}

// Levels of the hierarchy in ascending level order: highway, arterial, local.
var Levels = []Level{
	{Level: 0, Size: 4},
	{Level: 1, Size: 1},
	{Level: 2, Size: 0.25},
}

func LevelOf(level uint32) (Level, bool) {
	for _, l := range Levels {
		if l.Level == level {
			return l, true
		}
	}
	return Level{}, false
}

func (l Level) Columns() int {
	return int(math.Round(360 / l.Size))
}

func (l Level) Rows() int {
	return int(math.Round(180 / l.Size))
}

func (l Level) MaxTileID() uint32 {
	return uint32(l.Columns()*l.Rows() - 1)
}

func (l Level) column(lon float64) int {
	return clamp(int(math.Floor((lon+180)/l.Size)), 0, l.Columns()-1)
}

func (l Level) row(lat float64) int {
	return clamp(int(math.Floor((lat+90)/l.Size)), 0, l.Rows()-1)
}

// TileID of the tile containing the point.
func (l Level) TileID(lat, lon float64) uint32 {
	return uint32(l.row(lat)*l.Columns() + l.column(lon))
}

// TilesInBbox returns every tile of the level intersecting bb, row-major.
func (l Level) TilesInBbox(bb geo.BoundingBox) []TileAddress {
	minCol, maxCol := l.column(bb.West), l.column(bb.East)
	minRow, maxRow := l.row(bb.South), l.row(bb.North)

	cols := l.Columns()
	tiles := make([]TileAddress, 0, (maxCol-minCol+1)*(maxRow-minRow+1))
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			tiles = append(tiles, TileAddress{Level: l.Level, ID: uint32(row*cols + col)})
		}
	}
	return tiles
}

// suffixWidth is the digit count of the level's largest tile id, rounded up to a multiple of 3.
func (l Level) suffixWidth() int {
	width := len(strconv.FormatUint(uint64(l.MaxTileID()), 10))
	if rem := width % 3; rem != 0 {
		width += 3 - rem
	}
	return width
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TileAddress identifies one tile of the hierarchy.
type TileAddress struct {
	Level uint32
	ID    uint32
}

// Suffix formats the tile as a path suffix: the level followed by the zero padded tile id
// split into groups of three digits, e.g. level 0 tile 3015 -> "0/003/015".
func (t TileAddress) Suffix() string {
	width := 0
	if l, ok := LevelOf(t.Level); ok {
		width = l.suffixWidth()
	}

	digits := strconv.FormatUint(uint64(t.ID), 10)
	if rem := len(digits) % 3; rem != 0 && len(digits) >= width {
		width = len(digits) + 3 - rem
	}
	if len(digits) < width {
		digits = strings.Repeat("0", width-len(digits)) + digits
	}

	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(uint64(t.Level), 10))
	for i := 0; i < len(digits); i += 3 {
		sb.WriteByte('/')
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}

func (t TileAddress) String() string {
	return fmt.Sprintf("%d/%d", t.Level, t.ID)
}

// TilesForBbox returns the tiles of every level intersecting bb, level by level.
func TilesForBbox(bb geo.BoundingBox) []TileAddress {
	tiles := []TileAddress{}
	for _, l := range Levels {
		tiles = append(tiles, l.TilesInBbox(bb)...)
	}
	return tiles
}
