package tilestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lintang-b-s/osmlr-overlay/pkg"
	"github.com/lintang-b-s/osmlr-overlay/pkg/concurrent"
	"github.com/lintang-b-s/osmlr-overlay/pkg/datastructure"
	"github.com/lintang-b-s/osmlr-overlay/pkg/metrics"
	"github.com/lintang-b-s/osmlr-overlay/pkg/tiles"
	"go.uber.org/zap"
)

// DefaultDataTileURL points at a locally served speed tile tree.
const DefaultDataTileURL = "http://localhost:8080/speed-tiles/"

type DataTileFormat string

const (
	// FormatJSON: {baseURL}/{suffix}.json holding {"subtiles": [...]}.
	FormatJSON DataTileFormat = "json"
	// FormatSpeedTile: gzipped protobuf subtiles {baseURL}/{suffix}.spd.{n}.gz.
	FormatSpeedTile DataTileFormat = "spd"
)

func ParseDataTileFormat(s string) (DataTileFormat, error) {
	switch DataTileFormat(s) {
	case FormatJSON, FormatSpeedTile:
		return DataTileFormat(s), nil
	}
	return "", pkg.WrapErrorf(errors.New("unknown data tile format"), pkg.ErrBadParamInput,
		"data tile format %q, expected %q or %q", s, FormatJSON, FormatSpeedTile)
}

type jsonDataTile struct {
	Subtiles []datastructure.Subtile `json:"subtiles"`
}

// DataTileClient fetches the speed tiles of segments.
type DataTileClient struct {
	baseURL string
	format  DataTileFormat
	client  *http.Client
	log     *zap.Logger
}

func NewDataTileClient(baseURL string, format DataTileFormat, client *http.Client, log *zap.Logger) *DataTileClient {
	if baseURL == "" {
		baseURL = DefaultDataTileURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if format == "" {
		format = FormatJSON
	}
	return &DataTileClient{
		baseURL: baseURL,
		format:  format,
		client:  client,
		log:     log,
	}
}

type dataTileResult struct {
	key      datastructure.TileKey
	subtiles []datastructure.Subtile
	found    bool
}

// FetchDataTiles fetches the data tile of every distinct (level, tile) of segments at once.
// Tiles the store does not have are left out of the result; any other failure fails the
// whole fetch.
func (c *DataTileClient) FetchDataTiles(ctx context.Context, segments []datastructure.SegmentID) (datastructure.DataTiles, error) {
	keys := make([]datastructure.TileKey, 0)
	seen := make(map[datastructure.TileKey]struct{})
	for _, s := range segments {
		key := s.TileKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	results, err := concurrent.FanOut(ctx, keys, c.fetchDataTile)
	if err != nil {
		return nil, pkg.WrapErrorf(fmt.Errorf("%w: %w", pkg.ErrDataTileFetchFailure, err), pkg.ErrInternalServerError,
			"fetch %d data tiles", len(keys))
	}

	dataTiles := make(datastructure.DataTiles, len(results))
	for _, res := range results {
		if !res.found {
			c.log.Debug("data tile not available", zap.Uint32("level", res.key.Level), zap.Uint32("tile", res.key.Tile))
			continue
		}
		dataTiles[res.key] = res.subtiles
	}
	return dataTiles, nil
}

func (c *DataTileClient) suffix(key datastructure.TileKey) string {
	return tiles.TileAddress{Level: key.Level, ID: key.Tile}.Suffix()
}

func (c *DataTileClient) fetchDataTile(ctx context.Context, key datastructure.TileKey) (dataTileResult, error) {
	var (
		subtiles []datastructure.Subtile
		err      error
	)
	switch c.format {
	case FormatSpeedTile:
		subtiles, err = c.fetchSpeedTile(ctx, key)
	default:
		subtiles, err = c.fetchJSONTile(ctx, key)
	}

	if errors.Is(err, errTileNotFound) {
		return dataTileResult{key: key}, nil
	}
	if err != nil {
		return dataTileResult{}, err
	}
	return dataTileResult{key: key, subtiles: subtiles, found: true}, nil
}

func (c *DataTileClient) fetchJSONTile(ctx context.Context, key datastructure.TileKey) ([]datastructure.Subtile, error) {
	body, err := get(ctx, c.client, joinURL(c.baseURL, c.suffix(key)+".json"), metrics.KindData)
	if err != nil {
		return nil, err
	}
	var tile jsonDataTile
	if err := json.Unmarshal(body, &tile); err != nil {
		return nil, fmt.Errorf("decode data tile %s: %w", c.suffix(key), err)
	}
	return tile.Subtiles, nil
}

func (c *DataTileClient) speedTileURL(key datastructure.TileKey, index int) string {
	return joinURL(c.baseURL, fmt.Sprintf("%s.spd.%d.gz", c.suffix(key), index))
}

func (c *DataTileClient) fetchSpeedSubtile(ctx context.Context, key datastructure.TileKey, index int) ([]datastructure.Subtile, error) {
	body, err := get(ctx, c.client, c.speedTileURL(key, index), metrics.KindData)
	if err != nil {
		return nil, err
	}
	subtiles, err := DecodeSpeedTile(body)
	if err != nil {
		return nil, fmt.Errorf("decode speed tile %s: %w", c.speedTileURL(key, index), err)
	}
	return subtiles, nil
}

// fetchSpeedTile reads subtile 0 first, its totalSegments and subtileSegments tell how
// many subtile files the tile is split into; the rest are fetched at once.
func (c *DataTileClient) fetchSpeedTile(ctx context.Context, key datastructure.TileKey) ([]datastructure.Subtile, error) {
	first, err := c.fetchSpeedSubtile(ctx, key, 0)
	if err != nil {
		return nil, err
	}
	if len(first) == 0 || first[0].SubtileSegments == 0 {
		return first, nil
	}

	count := int((first[0].TotalSegments + first[0].SubtileSegments - 1) / first[0].SubtileSegments)
	if count <= 1 {
		return first, nil
	}

	indices := make([]int, 0, count-1)
	for i := 1; i < count; i++ {
		indices = append(indices, i)
	}
	rest, err := concurrent.FanOut(ctx, indices, func(ctx context.Context, index int) ([]datastructure.Subtile, error) {
		return c.fetchSpeedSubtile(ctx, key, index)
	})
	if err != nil {
		return nil, err
	}

	subtiles := first
	for _, r := range rest {
		subtiles = append(subtiles, r...)
	}
	return subtiles, nil
}
