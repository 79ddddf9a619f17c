package tilestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/lintang-b-s/osmlr-overlay/pkg"
	"github.com/lintang-b-s/osmlr-overlay/pkg/datastructure"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protowire"
)

func newTileCollection(firstID, n int) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := 0; i < n; i++ {
		f := geojson.NewFeature(orb.MultiLineString{{{0.1, 0.1}, {0.2, 0.2}}})
		f.Properties["osmlr_id"] = float64(firstID + i)
		fc.Append(f)
	}
	return fc
}

func newGeometryServer(t *testing.T, tiles map[string]*geojson.FeatureCollection, hits *int64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt64(hits, 1)
		}
		suffix := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/geojson/"), ".json")
		fc, ok := tiles[suffix]
		if !ok {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		body, err := fc.MarshalJSON()
		assert.NoError(t, err)
		_, _ = w.Write(body)
	}))
}

func TestGeometryClientFetchAndMerge(t *testing.T) {
	srv := newGeometryServer(t, map[string]*geojson.FeatureCollection{
		"0/002/025": newTileCollection(100, 3),
		"1/032/580": newTileCollection(200, 5),
	}, nil)
	defer srv.Close()

	client := NewGeometryClient(srv.URL+"/geojson/", srv.Client(), zap.NewNop())
	assert.Equal(t, srv.URL+"/geojson/0/002/025.json", client.URL("0/002/025"))

	t.Run("merges in suffix order", func(t *testing.T) {
		merged, err := FetchAndMerge(context.Background(), client, []string{"0/002/025", "1/032/580"})
		require.NoError(t, err)
		require.Len(t, merged.Features, 8)

		ids := []float64{}
		for _, f := range merged.Features {
			ids = append(ids, f.Properties["osmlr_id"].(float64))
		}
		assert.Equal(t, []float64{100, 101, 102, 200, 201, 202, 203, 204}, ids)
	})

	t.Run("one failing tile fails the merge", func(t *testing.T) {
		merged, err := FetchAndMerge(context.Background(), client, []string{"0/002/025", "9/999/999", "1/032/580"})
		assert.Nil(t, merged)
		assert.True(t, errors.Is(err, pkg.ErrTileFetchFailure))
	})

	t.Run("no suffixes", func(t *testing.T) {
		merged, err := FetchAndMerge(context.Background(), client, nil)
		require.NoError(t, err)
		assert.Empty(t, merged.Features)
	})
}

func TestGeometryClientSharedFetchOutlivesFailingCaller(t *testing.T) {
	body, err := newTileCollection(100, 3).MarshalJSON()
	require.NoError(t, err)

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	failBad := make(chan struct{})
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/0/002/025.json":
			atomic.AddInt64(&hits, 1)
			select {
			case entered <- struct{}{}:
			default:
			}
			select {
			case <-release:
				_, _ = w.Write(body)
			case <-r.Context().Done():
			}
		default:
			<-failBad
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()
	var closeRelease, closeFailBad sync.Once
	defer closeRelease.Do(func() { close(release) })
	defer closeFailBad.Do(func() { close(failBad) })

	client := NewGeometryClient(srv.URL, srv.Client(), zap.NewNop())

	errA := make(chan error, 1)
	go func() {
		_, err := FetchAndMerge(context.Background(), client, []string{"0/002/025", "bad"})
		errA <- err
	}()
	<-entered

	type outcome struct {
		merged *geojson.FeatureCollection
		err    error
	}
	doneB := make(chan outcome, 1)
	go func() {
		merged, err := FetchAndMerge(context.Background(), client, []string{"0/002/025"})
		doneB <- outcome{merged, err}
	}()
	// give the second caller time to join the in-flight download
	time.Sleep(20 * time.Millisecond)

	closeFailBad.Do(func() { close(failBad) })
	assert.ErrorIs(t, <-errA, pkg.ErrTileFetchFailure)

	closeRelease.Do(func() { close(release) })
	b := <-doneB
	require.NoError(t, b.err)
	require.Len(t, b.merged.Features, 3)
	assert.LessOrEqual(t, atomic.LoadInt64(&hits), int64(2))
}

func TestGeometryClientCallerCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()
	defer close(release)

	client := NewGeometryClient(srv.URL, srv.Client(), zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.FetchTile(ctx, "0/002/025")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMerge(t *testing.T) {
	merged := Merge([]*geojson.FeatureCollection{newTileCollection(0, 2), nil, newTileCollection(10, 1)})
	require.Len(t, merged.Features, 3)
	assert.Equal(t, float64(10), merged.Features[2].Properties["osmlr_id"])
}

func encodeSubtile(s datastructure.Subtile) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, 1)
	b = protowire.AppendTag(b, subtileUnitSizeField, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.UnitSize))
	b = protowire.AppendTag(b, subtileEntrySizeField, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.EntrySize))
	b = protowire.AppendTag(b, 5, protowire.BytesType)
	b = protowire.AppendString(b, "speeds by hour of week")
	b = protowire.AppendTag(b, subtileTotalSegmentsField, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.TotalSegments))
	b = protowire.AppendTag(b, subtileSubtileSegmentsField, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.SubtileSegments))
	b = protowire.AppendTag(b, subtileStartSegmentIndexField, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.StartSegmentIndex))

	var packed []byte
	for _, v := range s.Speeds {
		packed = protowire.AppendVarint(packed, uint64(v))
	}
	b = protowire.AppendTag(b, subtileSpeedsField, protowire.BytesType)
	b = protowire.AppendBytes(b, packed)
	return b
}

func encodeSpeedTile(t *testing.T, subtiles ...datastructure.Subtile) []byte {
	var msg []byte
	for _, s := range subtiles {
		msg = protowire.AppendTag(msg, speedTileSubtilesField, protowire.BytesType)
		msg = protowire.AppendBytes(msg, encodeSubtile(s))
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(msg)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDecodeSpeedTile(t *testing.T) {
	subtile := datastructure.Subtile{
		StartSegmentIndex: 1000,
		SubtileSegments:   1000,
		TotalSegments:     5000,
		UnitSize:          24,
		EntrySize:         1,
		Speeds:            []float64{0, 35, 62, 300},
	}

	t.Run("gzipped", func(t *testing.T) {
		decoded, err := DecodeSpeedTile(encodeSpeedTile(t, subtile))
		require.NoError(t, err)
		assert.Equal(t, []datastructure.Subtile{subtile}, decoded)
	})

	t.Run("plain", func(t *testing.T) {
		var msg []byte
		msg = protowire.AppendTag(msg, speedTileSubtilesField, protowire.BytesType)
		msg = protowire.AppendBytes(msg, encodeSubtile(subtile))
		decoded, err := DecodeSpeedTile(msg)
		require.NoError(t, err)
		assert.Equal(t, []datastructure.Subtile{subtile}, decoded)
	})

	t.Run("truncated", func(t *testing.T) {
		var msg []byte
		msg = protowire.AppendTag(msg, speedTileSubtilesField, protowire.BytesType)
		msg = protowire.AppendBytes(msg, encodeSubtile(subtile))
		_, err := DecodeSpeedTile(msg[:len(msg)-3])
		assert.Error(t, err)
	})
}

func TestDataTileClient(t *testing.T) {
	segments := []datastructure.SegmentID{
		datastructure.NewSegmentID(1, 37740, 1500),
		datastructure.NewSegmentID(1, 37740, 20),
		datastructure.NewSegmentID(0, 3015, 3),
		datastructure.NewSegmentID(0, 1, 3),
	}

	subtiles := []datastructure.Subtile{
		{StartSegmentIndex: 0, SubtileSegments: 2, TotalSegments: 5, UnitSize: 2, EntrySize: 1, Speeds: []float64{1, 2, 3, 4}},
		{StartSegmentIndex: 2, SubtileSegments: 2, TotalSegments: 5, UnitSize: 2, EntrySize: 1, Speeds: []float64{5, 6, 7, 8}},
		{StartSegmentIndex: 4, SubtileSegments: 2, TotalSegments: 5, UnitSize: 2, EntrySize: 1, Speeds: []float64{9, 10}},
	}

	t.Run("json", func(t *testing.T) {
		var hits int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&hits, 1)
			switch r.URL.Path {
			case "/speeds/1/037/740.json", "/speeds/0/003/015.json":
				_ = json.NewEncoder(w).Encode(jsonDataTile{Subtiles: subtiles})
			default:
				http.NotFound(w, r)
			}
		}))
		defer srv.Close()

		client := NewDataTileClient(srv.URL+"/speeds", FormatJSON, srv.Client(), zap.NewNop())
		dataTiles, err := client.FetchDataTiles(context.Background(), segments)
		require.NoError(t, err)

		assert.Equal(t, int64(3), atomic.LoadInt64(&hits))
		assert.Len(t, dataTiles, 2)
		assert.Equal(t, subtiles, dataTiles[datastructure.TileKey{Level: 1, Tile: 37740}])
		_, ok := dataTiles.Subtiles(0, 1)
		assert.False(t, ok)
	})

	t.Run("speed tiles", func(t *testing.T) {
		files := map[string][]byte{}
		for i, s := range subtiles {
			files[fmt.Sprintf("/speeds/1/037/740.spd.%d.gz", i)] = encodeSpeedTile(t, s)
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if body, ok := files[r.URL.Path]; ok {
				_, _ = w.Write(body)
				return
			}
			http.NotFound(w, r)
		}))
		defer srv.Close()

		client := NewDataTileClient(srv.URL+"/speeds/", FormatSpeedTile, srv.Client(), zap.NewNop())
		dataTiles, err := client.FetchDataTiles(context.Background(), segments[:2])
		require.NoError(t, err)
		assert.Equal(t, subtiles, dataTiles[datastructure.TileKey{Level: 1, Tile: 37740}])
	})

	t.Run("server error fails the fetch", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client := NewDataTileClient(srv.URL, FormatJSON, srv.Client(), zap.NewNop())
		_, err := client.FetchDataTiles(context.Background(), segments)
		assert.True(t, errors.Is(err, pkg.ErrDataTileFetchFailure))
	})
}

func TestParseDataTileFormat(t *testing.T) {
	f, err := ParseDataTileFormat("spd")
	require.NoError(t, err)
	assert.Equal(t, FormatSpeedTile, f)

	_, err = ParseDataTileFormat("xml")
	assert.Error(t, err)
}
