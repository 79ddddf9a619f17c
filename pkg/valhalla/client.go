package valhalla

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lintang-b-s/osmlr-overlay/pkg"
	"github.com/lintang-b-s/osmlr-overlay/pkg/geo"
	"github.com/lintang-b-s/osmlr-overlay/pkg/metrics"
	"go.uber.org/zap"
)

type location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type routeRequest struct {
	Locations []location `json:"locations"`
	Costing   string     `json:"costing"`
}

// Summary is the part of the trip summary describing the bounding box of the route.
type Summary struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
	Length float64 `json:"length"`
	Time   float64 `json:"time"`
}

type routeResponse struct {
	Trip struct {
		Summary Summary `json:"summary"`
	} `json:"trip"`
}

// RouteClient asks a Valhalla server for the route between the south-west and north-east
// corners of a box and returns the bounding box of that route.
type RouteClient struct {
	host   string
	client *http.Client
	log    *zap.Logger
}

func NewRouteClient(host string, client *http.Client, log *zap.Logger) *RouteClient {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &RouteClient{
		host:   strings.TrimRight(host, "/"),
		client: client,
		log:    log,
	}
}

func (c *RouteClient) routeURL(bb geo.BoundingBox) (string, error) {
	sw, ne := bb.SouthWest(), bb.NorthEast()
	req := routeRequest{
		Locations: []location{
			{Lat: sw.Lat(), Lon: sw.Lon()},
			{Lat: ne.Lat(), Lon: ne.Lon()},
		},
		Costing: "auto",
	}
	js, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	return c.host + "/route?json=" + url.QueryEscape(string(js)), nil
}

// RouteBoundingBox returns the bounding box summary of the route across bb.
func (c *RouteClient) RouteBoundingBox(ctx context.Context, bb geo.BoundingBox) (geo.BoundingBox, error) {
	u, err := c.routeURL(bb)
	if err != nil {
		return geo.BoundingBox{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return geo.BoundingBox{}, err
	}

	t0 := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.TileFetchTotal.WithLabelValues(metrics.KindRoute, "error").Inc()
		return geo.BoundingBox{}, c.wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.TileFetchTotal.WithLabelValues(metrics.KindRoute, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return geo.BoundingBox{}, c.wrap(fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body))))
	}

	var route routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		metrics.TileFetchTotal.WithLabelValues(metrics.KindRoute, "error").Inc()
		return geo.BoundingBox{}, c.wrap(err)
	}
	metrics.TileFetchTotal.WithLabelValues(metrics.KindRoute, "ok").Inc()
	metrics.TileFetchDurationMs.WithLabelValues(metrics.KindRoute).Observe(float64(time.Since(t0).Milliseconds()))

	s := route.Trip.Summary
	summary := geo.NewBoundingBox(s.MinLon, s.MinLat, s.MaxLon, s.MaxLat)
	if err := summary.Validate(); err != nil {
		return geo.BoundingBox{}, c.wrap(err)
	}

	c.log.Debug("route resolved", zap.Float64("length", s.Length), zap.Float64("time", s.Time),
		zap.Float64s("bbox", []float64{summary.West, summary.South, summary.East, summary.North}))
	return summary, nil
}

func (c *RouteClient) wrap(err error) error {
	return pkg.WrapErrorf(fmt.Errorf("%w: %w", pkg.ErrRouteLookupFailure, err), pkg.ErrInternalServerError,
		"route lookup on %s", c.host)
}
