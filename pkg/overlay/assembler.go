package overlay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lintang-b-s/osmlr-overlay/pkg"
	"github.com/lintang-b-s/osmlr-overlay/pkg/datastructure"
	"github.com/lintang-b-s/osmlr-overlay/pkg/geo"
	"github.com/lintang-b-s/osmlr-overlay/pkg/metrics"
	"github.com/lintang-b-s/osmlr-overlay/pkg/speed"
	"github.com/lintang-b-s/osmlr-overlay/pkg/tiles"
	"github.com/lintang-b-s/osmlr-overlay/pkg/tilestore"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// ErrSuperseded is returned by ShowRegion when a newer invocation or a clear started
// before the result could be published.
var ErrSuperseded = errors.New("overlay invocation superseded")

type RouteResolver interface {
	RouteBoundingBox(ctx context.Context, bb geo.BoundingBox) (geo.BoundingBox, error)
}

type DataTileFetcher interface {
	FetchDataTiles(ctx context.Context, segments []datastructure.SegmentID) (datastructure.DataTiles, error)
}

// Result describes one finished invocation.
type Result struct {
	InvocationID    string
	State           State
	Suffixes        []string
	Features        int
	Segments        int
	SkippedSegments int
	SpeedsAttached  int
	Overlay         *geojson.FeatureCollection
}

type Assembler struct {
	route    RouteResolver
	tiles    tilestore.TileFetcher
	data     DataTileFetcher
	sink     RenderSink
	hour     HourSelector
	loading  LoadingIndicator
	observer Observer
	log      *zap.Logger

	generation atomic.Uint64
	// publishMu makes the generation check and the sink write one step.
	publishMu sync.Mutex
}

type Option func(*Assembler)

// WithRouteResolver enables the route lookup stage. Without it the input bounding box is
// used as the route summary.
func WithRouteResolver(route RouteResolver) Option {
	return func(a *Assembler) {
		a.route = route
	}
}

func WithObserver(observer Observer) Option {
	return func(a *Assembler) {
		a.observer = observer
	}
}

func NewAssembler(tileFetcher tilestore.TileFetcher, data DataTileFetcher, sink RenderSink,
	hour HourSelector, loading LoadingIndicator, log *zap.Logger, opts ...Option) *Assembler {
	a := &Assembler{
		tiles:    tileFetcher,
		data:     data,
		sink:     sink,
		hour:     hour,
		loading:  loading,
		observer: nopObserver{},
		log:      log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type invocation struct {
	a          *Assembler
	id         string
	generation uint64
	state      State
	started    time.Time
	loading    bool
}

func (inv *invocation) to(state State) {
	from := inv.state
	inv.state = state
	inv.a.observer.OnTransition(inv.id, from, state)
}

func (inv *invocation) finish(state State) {
	if inv.loading {
		inv.a.loading.Stop()
		inv.loading = false
	}
	inv.to(state)
	metrics.InvocationsTotal.WithLabelValues(state.String()).Inc()
	metrics.InvocationDurationMs.Observe(float64(time.Since(inv.started).Milliseconds()))
}

func (inv *invocation) fail(result Result, err error) (Result, error) {
	inv.a.log.Error("overlay invocation failed",
		zap.String("invocation", inv.id),
		zap.String("state", inv.state.String()),
		zap.Error(err))
	inv.finish(Failed)
	result.State = Failed
	return result, err
}

func (a *Assembler) begin() *invocation {
	return &invocation{
		a:          a,
		id:         uuid.NewString(),
		generation: a.generation.Add(1),
		state:      Idle,
		started:    time.Now(),
	}
}

// ShowRegion builds the traffic overlay for bbox and publishes it to the routes slot. A nil
// bbox clears the slot without any network call.
func (a *Assembler) ShowRegion(ctx context.Context, bbox *geo.BoundingBox) (Result, error) {
	if bbox == nil {
		return a.Clear(ctx)
	}

	inv := a.begin()
	result := Result{InvocationID: inv.id}

	if err := bbox.Validate(); err != nil {
		return inv.fail(result, err)
	}

	summary := *bbox
	if a.route != nil {
		var err error
		summary, err = a.route.RouteBoundingBox(ctx, *bbox)
		if err != nil {
			return inv.fail(result, err)
		}
	}
	inv.to(RouteResolved)

	suffixes, err := tiles.ResolveSuffixes(summary)
	if err != nil {
		return inv.fail(result, err)
	}
	result.Suffixes = suffixes
	inv.to(TilesAddressed)

	a.loading.Start()
	inv.loading = true

	merged, err := tilestore.FetchAndMerge(ctx, a.tiles, suffixes)
	if err != nil {
		return inv.fail(result, err)
	}
	inv.to(GeometryFetched)

	clipped := geo.ClipFeatures(merged, *bbox)
	result.Features = len(clipped.Features)
	inv.to(Clipped)

	segments, skipped := speed.ParseSegments(speed.ExtractSegmentIDs(clipped))
	if skipped > 0 {
		a.log.Debug("skipped invalid segment ids",
			zap.String("invocation", inv.id),
			zap.Int("skipped", skipped))
	}
	result.Segments = len(segments)
	result.SkippedSegments = skipped
	inv.to(SegmentsParsed)

	ids := make([]datastructure.SegmentID, len(segments))
	for i, s := range segments {
		ids[i] = s.ID
	}
	dataTiles, err := a.data.FetchDataTiles(ctx, ids)
	if err != nil {
		return inv.fail(result, err)
	}
	inv.to(SpeedDataFetched)

	results := speed.Resolve(segments, dataTiles, a.hour.Hour())
	misses := 0
	for _, r := range results {
		if !r.OK {
			misses++
		}
	}
	metrics.SpeedLookupsTotal.WithLabelValues("hit").Add(float64(len(results) - misses))
	metrics.SpeedLookupsTotal.WithLabelValues("miss").Add(float64(misses))
	if misses > 0 {
		a.log.Debug("speed lookups missed",
			zap.String("invocation", inv.id),
			zap.Int("misses", misses))
	}
	result.SpeedsAttached = speed.Attach(clipped, results)
	result.Overlay = clipped
	inv.to(Joined)

	published, err := a.publish(ctx, inv.generation, NewGeoJSONOverlay(clipped))
	if err != nil {
		return inv.fail(result, err)
	}
	if !published {
		a.log.Info("discarded stale overlay", zap.String("invocation", inv.id))
		inv.finish(Superseded)
		result.State = Superseded
		return result, ErrSuperseded
	}

	a.log.Info("published overlay",
		zap.String("invocation", inv.id),
		zap.Int("tiles", len(suffixes)),
		zap.Int("features", result.Features),
		zap.Int("speeds", result.SpeedsAttached))
	inv.finish(Published)
	result.State = Published
	return result, nil
}

func (a *Assembler) publish(ctx context.Context, generation uint64, overlay Overlay) (bool, error) {
	a.publishMu.Lock()
	defer a.publishMu.Unlock()
	if a.generation.Load() != generation {
		return false, nil
	}
	if err := a.sink.Set(ctx, RoutesSlot, overlay); err != nil {
		return false, pkg.WrapErrorf(fmt.Errorf("%w: %w", pkg.ErrSinkFailure, err), pkg.ErrInternalServerError,
			"publish overlay %s", RoutesSlot)
	}
	return true, nil
}

// Clear removes the published overlay. Invocations still in flight are discarded when
// they reach publish.
func (a *Assembler) Clear(ctx context.Context) (Result, error) {
	inv := a.begin()
	result := Result{InvocationID: inv.id}

	a.publishMu.Lock()
	err := a.sink.Clear(ctx, RoutesSlot)
	a.publishMu.Unlock()
	if err != nil {
		return inv.fail(result, pkg.WrapErrorf(fmt.Errorf("%w: %w", pkg.ErrSinkFailure, err), pkg.ErrInternalServerError,
			"clear overlay %s", RoutesSlot))
	}

	inv.finish(Cleared)
	result.State = Cleared
	return result, nil
}

// Current returns the overlay published in the routes slot.
func (a *Assembler) Current(ctx context.Context) (Overlay, bool, error) {
	return a.sink.Get(ctx, RoutesSlot)
}
