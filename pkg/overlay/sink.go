package overlay

import (
	"context"
	"sync"

	"github.com/paulmach/orb/geojson"
)

const (
	// RoutesSlot is the render slot the traffic overlay is published under.
	RoutesSlot = "routes"

	OverlayTypeGeoJSON = "GeoJSON"
)

// Overlay model info
//
//	@Description	data source handed to the renderer.
type Overlay struct {
	Type string                     `json:"type"`
	Data *geojson.FeatureCollection `json:"data"`
}

func NewGeoJSONOverlay(fc *geojson.FeatureCollection) Overlay {
	return Overlay{Type: OverlayTypeGeoJSON, Data: fc}
}

// RenderSink holds named overlays consumed by the renderer.
type RenderSink interface {
	Get(ctx context.Context, name string) (Overlay, bool, error)
	Set(ctx context.Context, name string, overlay Overlay) error
	Clear(ctx context.Context, name string) error
}

type MemorySink struct {
	mu       sync.RWMutex
	overlays map[string]Overlay
}

func NewMemorySink() *MemorySink {
	return &MemorySink{overlays: make(map[string]Overlay)}
}

func (s *MemorySink) Get(_ context.Context, name string) (Overlay, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.overlays[name]
	return o, ok, nil
}

func (s *MemorySink) Set(_ context.Context, name string, overlay Overlay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlays[name] = overlay
	return nil
}

func (s *MemorySink) Clear(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overlays, name)
	return nil
}
