package overlay

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/lintang-b-s/osmlr-overlay/pkg"
	"github.com/lintang-b-s/osmlr-overlay/pkg/datastructure"
	"github.com/lintang-b-s/osmlr-overlay/pkg/geo"
	"github.com/lintang-b-s/osmlr-overlay/pkg/speed"
	"github.com/lintang-b-s/osmlr-overlay/pkg/tiles"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTiles struct {
	calls   atomic.Int64
	build   func(suffix string) *geojson.FeatureCollection
	err     error
	entered chan struct{}
	release chan struct{}
}

func (f *fakeTiles) FetchTile(ctx context.Context, suffix string) (*geojson.FeatureCollection, error) {
	f.calls.Add(1)
	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.build(suffix), nil
}

type fakeData struct {
	calls     atomic.Int64
	requested []datastructure.SegmentID
	tiles     datastructure.DataTiles
	err       error
}

func (f *fakeData) FetchDataTiles(ctx context.Context, segments []datastructure.SegmentID) (datastructure.DataTiles, error) {
	f.calls.Add(1)
	f.requested = segments
	if f.err != nil {
		return nil, pkg.WrapErrorf(errors.Join(pkg.ErrDataTileFetchFailure, f.err), pkg.ErrInternalServerError, "fetch data tiles")
	}
	return f.tiles, nil
}

type fakeRoute struct {
	summary geo.BoundingBox
	got     geo.BoundingBox
}

func (f *fakeRoute) RouteBoundingBox(ctx context.Context, bb geo.BoundingBox) (geo.BoundingBox, error) {
	f.got = bb
	return f.summary, nil
}

type recorder struct {
	mu     sync.Mutex
	states map[string][]State
}

func newRecorder() *recorder {
	return &recorder{states: make(map[string][]State)}
}

func (r *recorder) OnTransition(id string, from, to State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[id] = append(r.states[id], to)
}

func (r *recorder) of(id string) []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states[id]...)
}

func rawID(t *testing.T, level, tile, segment uint32) int64 {
	raw, err := tiles.EncodeSegmentID(datastructure.NewSegmentID(level, tile, segment))
	require.NoError(t, err)
	return raw
}

func lineFeature(id interface{}, points ...orb.Point) *geojson.Feature {
	f := geojson.NewFeature(orb.LineString(points))
	f.Properties[speed.SegmentIDProperty] = id
	return f
}

type env struct {
	tiles     *fakeTiles
	data      *fakeData
	sink      *MemorySink
	hour      *Hour
	loading   *Loading
	recorder  *recorder
	assembler *Assembler
}

func newEnv(t *testing.T, opts ...Option) *env {
	known := rawID(t, 1, 37740, 1500)
	outside := rawID(t, 1, 37740, 1600)

	e := &env{
		tiles: &fakeTiles{
			build: func(suffix string) *geojson.FeatureCollection {
				fc := geojson.NewFeatureCollection()
				switch suffix {
				case "0/002/025":
					fc.Append(lineFeature(float64(known), orb.Point{0.6, 0.15}, orb.Point{0.7, 0.15}))
				case "1/032/580":
					fc.Append(lineFeature(float64(outside), orb.Point{5, 5}, orb.Point{5.1, 5}))
				case "1/032/581":
					fc.Append(lineFeature(float64(known), orb.Point{1.2, 0.12}, orb.Point{1.3, 0.12}))
					fc.Append(lineFeature("not-an-id", orb.Point{1.4, 0.18}))
				}
				return fc
			},
		},
		data: &fakeData{
			tiles: datastructure.DataTiles{
				{Level: 1, Tile: 37740}: {{
					StartSegmentIndex: 0,
					SubtileSegments:   2000,
					TotalSegments:     2000,
					UnitSize:          24,
					EntrySize:         1,
					Speeds:            sequence(2000 * 24),
				}},
			},
		},
		sink:     NewMemorySink(),
		hour:     NewHour(5),
		loading:  NewLoading(),
		recorder: newRecorder(),
	}
	opts = append([]Option{WithObserver(e.recorder)}, opts...)
	e.assembler = NewAssembler(e.tiles, e.data, e.sink, e.hour, e.loading, zap.NewNop(), opts...)
	return e
}

func sequence(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = float64(i)
	}
	return s
}

func TestShowRegionPublishes(t *testing.T) {
	e := newEnv(t)
	bb := geo.NewBoundingBox(0.5, 0.1, 1.5, 0.2)

	result, err := e.assembler.ShowRegion(context.Background(), &bb)
	require.NoError(t, err)

	assert.Equal(t, Published, result.State)
	assert.Equal(t, []string{"0/002/025", "1/032/580", "1/032/581"}, result.Suffixes)
	assert.Equal(t, 3, result.Features)
	assert.Equal(t, 1, result.Segments)
	assert.Equal(t, 2, result.SpeedsAttached)
	assert.Equal(t, int64(3), e.tiles.calls.Load())
	assert.Equal(t, []datastructure.SegmentID{datastructure.NewSegmentID(1, 37740, 1500)}, e.data.requested)
	assert.False(t, e.loading.IsLoading())

	overlay, ok, err := e.sink.Get(context.Background(), RoutesSlot)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, OverlayTypeGeoJSON, overlay.Type)
	require.Len(t, overlay.Data.Features, 3)

	// localId 1500 with 24 entries per segment, hour 5
	assert.Equal(t, float64(36005), overlay.Data.Features[0].Properties[speed.SpeedProperty])
	assert.Equal(t, float64(36005), overlay.Data.Features[1].Properties[speed.SpeedProperty])
	_, hasSpeed := overlay.Data.Features[2].Properties[speed.SpeedProperty]
	assert.False(t, hasSpeed)

	assert.Equal(t, []State{
		RouteResolved, TilesAddressed, GeometryFetched, Clipped,
		SegmentsParsed, SpeedDataFetched, Joined, Published,
	}, e.recorder.of(result.InvocationID))
}

func TestShowRegionUsesRouteSummary(t *testing.T) {
	route := &fakeRoute{summary: geo.NewBoundingBox(0.5, 0.1, 1.5, 0.2)}
	e := newEnv(t, WithRouteResolver(route))
	bb := geo.NewBoundingBox(0.55, 0.12, 0.8, 0.19)

	result, err := e.assembler.ShowRegion(context.Background(), &bb)
	require.NoError(t, err)

	assert.Equal(t, bb, route.got)
	assert.Equal(t, []string{"0/002/025", "1/032/580", "1/032/581"}, result.Suffixes)
	// clipping still uses the requested box
	assert.Equal(t, 1, result.Features)
}

func TestShowRegionClear(t *testing.T) {
	e := newEnv(t)
	bb := geo.NewBoundingBox(0.5, 0.1, 1.5, 0.2)
	_, err := e.assembler.ShowRegion(context.Background(), &bb)
	require.NoError(t, err)
	tileCalls, dataCalls := e.tiles.calls.Load(), e.data.calls.Load()

	result, err := e.assembler.ShowRegion(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Cleared, result.State)
	assert.Equal(t, tileCalls, e.tiles.calls.Load())
	assert.Equal(t, dataCalls, e.data.calls.Load())

	_, ok, err := e.sink.Get(context.Background(), RoutesSlot)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestShowRegionFailures(t *testing.T) {
	cases := []struct {
		name      string
		bbox      geo.BoundingBox
		setup     func(e *env)
		want      error
		code      error
		tileCalls int64
		dataCalls int64
	}{
		{
			name:  "invalid bounding box",
			bbox:  geo.NewBoundingBox(10, 0, 5, 1),
			setup: func(e *env) {},
			want:  pkg.ErrInvalidBoundingBox,
			code:  pkg.ErrBadParamInput,
		},
		{
			name:      "geometry tile failure",
			bbox:      geo.NewBoundingBox(0.5, 0.1, 1.5, 0.2),
			setup:     func(e *env) { e.tiles.err = errors.New("boom") },
			want:      pkg.ErrTileFetchFailure,
			code:      pkg.ErrInternalServerError,
			tileCalls: 3,
		},
		{
			name:      "data tile failure",
			bbox:      geo.NewBoundingBox(0.5, 0.1, 1.5, 0.2),
			setup:     func(e *env) { e.data.err = errors.New("boom") },
			want:      pkg.ErrDataTileFetchFailure,
			code:      pkg.ErrInternalServerError,
			tileCalls: 3,
			dataCalls: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t)
			tc.setup(e)

			result, err := e.assembler.ShowRegion(context.Background(), &tc.bbox)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.code, pkg.ErrorCode(err))
			assert.Equal(t, Failed, result.State)
			assert.Equal(t, tc.tileCalls, e.tiles.calls.Load())
			assert.Equal(t, tc.dataCalls, e.data.calls.Load())
			assert.False(t, e.loading.IsLoading())

			_, ok, err := e.sink.Get(context.Background(), RoutesSlot)
			require.NoError(t, err)
			assert.False(t, ok)

			states := e.recorder.of(result.InvocationID)
			require.NotEmpty(t, states)
			assert.Equal(t, Failed, states[len(states)-1])
		})
	}
}

func TestShowRegionSupersededByClear(t *testing.T) {
	e := newEnv(t)
	e.tiles.entered = make(chan struct{}, 1)
	e.tiles.release = make(chan struct{})
	bb := geo.NewBoundingBox(0.5, 0.1, 1.5, 0.2)

	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := e.assembler.ShowRegion(context.Background(), &bb)
		done <- outcome{result, err}
	}()

	<-e.tiles.entered
	assert.True(t, e.loading.IsLoading())

	_, err := e.assembler.Clear(context.Background())
	require.NoError(t, err)
	close(e.tiles.release)

	out := <-done
	assert.ErrorIs(t, out.err, ErrSuperseded)
	assert.Equal(t, Superseded, out.result.State)
	assert.False(t, e.loading.IsLoading())

	_, ok, err := e.sink.Get(context.Background(), RoutesSlot)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestShowRegionReadsCurrentHour(t *testing.T) {
	e := newEnv(t)
	e.hour.Set(23)
	bb := geo.NewBoundingBox(0.5, 0.1, 1.5, 0.2)

	_, err := e.assembler.ShowRegion(context.Background(), &bb)
	require.NoError(t, err)

	overlay, ok, err := e.assembler.Current(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float64(1500*24+23), overlay.Data.Features[0].Properties[speed.SpeedProperty])
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "published", Published.String())
	assert.Equal(t, "superseded", Superseded.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.True(t, Cleared.Terminal())
	assert.False(t, Joined.Terminal())
}

func TestLoadingCountsInvocations(t *testing.T) {
	l := NewLoading()
	l.Start()
	l.Start()
	l.Stop()
	assert.True(t, l.IsLoading())
	l.Stop()
	assert.False(t, l.IsLoading())
	l.Stop()
	assert.False(t, l.IsLoading())
}
