package kvdb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lintang-b-s/osmlr-overlay/pkg/overlay"
	"github.com/paulmach/orb/geojson"
	"github.com/vmihailenco/msgpack/v5"
)

// envelope is the stored form of an overlay. The collection itself is kept as GeoJSON
// because orb geometries only know how to marshal themselves to JSON.
type envelope struct {
	Type        string `msgpack:"type"`
	Data        []byte `msgpack:"data"`
	PublishedAt int64  `msgpack:"published_at"`
}

func encodeOverlay(o overlay.Overlay, publishedAt time.Time) ([]byte, error) {
	env := envelope{Type: o.Type, PublishedAt: publishedAt.UnixMilli()}
	if o.Data != nil {
		data, err := o.Data.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("marshal overlay data: %w", err)
		}
		env.Data = data
	}
	buf, err := msgpack.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("marshal overlay envelope: %w", err)
	}
	return buf, nil
}

func decodeEnvelope(buf []byte) (envelope, error) {
	var env envelope
	if err := msgpack.Unmarshal(buf, &env); err != nil {
		return envelope{}, fmt.Errorf("unmarshal overlay envelope: %w", err)
	}
	return env, nil
}

func decodeOverlay(buf []byte) (overlay.Overlay, error) {
	env, err := decodeEnvelope(buf)
	if err != nil {
		return overlay.Overlay{}, err
	}
	o := overlay.Overlay{Type: env.Type}
	if len(env.Data) > 0 {
		fc := geojson.NewFeatureCollection()
		if err := json.Unmarshal(env.Data, fc); err != nil {
			return overlay.Overlay{}, fmt.Errorf("unmarshal overlay data: %w", err)
		}
		o.Data = fc
	}
	return o, nil
}
