package tilestore

import (
	"context"
	"fmt"

	"github.com/lintang-b-s/osmlr-overlay/pkg"
	"github.com/lintang-b-s/osmlr-overlay/pkg/concurrent"
	"github.com/paulmach/orb/geojson"
)

type TileFetcher interface {
	FetchTile(ctx context.Context, suffix string) (*geojson.FeatureCollection, error)
}

// Merge concatenates the features of every collection, in collection order.
func Merge(collections []*geojson.FeatureCollection) *geojson.FeatureCollection {
	merged := geojson.NewFeatureCollection()
	for _, fc := range collections {
		if fc == nil {
			continue
		}
		merged.Features = append(merged.Features, fc.Features...)
	}
	return merged
}

// FetchAndMerge fetches every suffix at once and merges the tiles in suffix order.
// If one fetch fails the whole merge fails and no collection is returned.
func FetchAndMerge(ctx context.Context, fetcher TileFetcher, suffixes []string) (*geojson.FeatureCollection, error) {
	collections, err := concurrent.FanOut(ctx, suffixes, fetcher.FetchTile)
	if err != nil {
		return nil, pkg.WrapErrorf(fmt.Errorf("%w: %w", pkg.ErrTileFetchFailure, err), pkg.ErrInternalServerError,
			"fetch %d geometry tiles", len(suffixes))
	}
	return Merge(collections), nil
}
