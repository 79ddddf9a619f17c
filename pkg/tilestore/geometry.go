package tilestore

import (
	"context"
	"net/http"

	"github.com/lintang-b-s/osmlr-overlay/pkg"
	"github.com/lintang-b-s/osmlr-overlay/pkg/metrics"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const DefaultGeometryTileURL = "https://osmlr-tiles.s3.amazonaws.com/v0.1/geojson/"

// GeometryClient fetches OSMLR geometry tiles as GeoJSON from {baseURL}/{suffix}.json.
type GeometryClient struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger

	// collapses concurrent requests for the same suffix; nothing is kept after they return.
	inflight singleflight.Group
}

func NewGeometryClient(baseURL string, client *http.Client, log *zap.Logger) *GeometryClient {
	if baseURL == "" {
		baseURL = DefaultGeometryTileURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &GeometryClient{
		baseURL: baseURL,
		client:  client,
		log:     log,
	}
}

func (c *GeometryClient) URL(suffix string) string {
	return joinURL(c.baseURL, suffix+".json")
}

// FetchTile returns a freshly decoded collection on every call, so callers may modify it.
func (c *GeometryClient) FetchTile(ctx context.Context, suffix string) (*geojson.FeatureCollection, error) {
	url := c.URL(suffix)
	// detached from the caller that starts the download, each caller waits on its own ctx
	fetchCtx := context.WithoutCancel(ctx)
	resC := c.inflight.DoChan(suffix, func() (interface{}, error) {
		return get(fetchCtx, c.client, url, metrics.KindGeometry)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, pkg.WrapErrorf(ctx.Err(), pkg.ErrInternalServerError, "fetch geometry tile %s", suffix)
	case res = <-resC:
	}
	if res.Err != nil {
		return nil, pkg.WrapErrorf(res.Err, pkg.ErrInternalServerError, "fetch geometry tile %s", suffix)
	}
	shared := res.Shared

	fc, err := geojson.UnmarshalFeatureCollection(res.Val.([]byte))
	if err != nil {
		return nil, pkg.WrapErrorf(err, pkg.ErrInternalServerError, "decode geometry tile %s", suffix)
	}

	c.log.Debug("geometry tile fetched", zap.String("suffix", suffix),
		zap.Int("features", len(fc.Features)), zap.Bool("shared", shared))
	return fc, nil
}
