package overlay_di

import (
	"net/http"

	"github.com/lintang-b-s/osmlr-overlay/pkg/di/config"
	"github.com/lintang-b-s/osmlr-overlay/pkg/overlay"
	"github.com/lintang-b-s/osmlr-overlay/pkg/tilestore"
	"github.com/lintang-b-s/osmlr-overlay/pkg/valhalla"
	"go.uber.org/zap"
)

func NewHour(cfg *config.Config) *overlay.Hour {
	return overlay.NewHour(cfg.DefaultHour)
}

func NewLoading() *overlay.Loading {
	return overlay.NewLoading()
}

func New(cfg *config.Config, log *zap.Logger, sink overlay.RenderSink, hour *overlay.Hour,
	loading *overlay.Loading) (*overlay.Assembler, error) {
	return Build(cfg, log, sink, hour, loading, nil)
}

// Build wires the remote stores into an assembler. The route lookup is only enabled when
// ROUTE_HOST is set, observer may be nil.
func Build(cfg *config.Config, log *zap.Logger, sink overlay.RenderSink, hour *overlay.Hour,
	loading *overlay.Loading, observer overlay.Observer) (*overlay.Assembler, error) {
	format, err := tilestore.ParseDataTileFormat(cfg.DataTileFormat)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: cfg.HTTPClientTimeout}
	geometry := tilestore.NewGeometryClient(cfg.GeometryTileURL, client, log)
	data := tilestore.NewDataTileClient(cfg.DataTileURL, format, client, log)

	var opts []overlay.Option
	if cfg.RouteHost != "" {
		opts = append(opts, overlay.WithRouteResolver(valhalla.NewRouteClient(cfg.RouteHost, client, log)))
	}
	if observer != nil {
		opts = append(opts, overlay.WithObserver(observer))
	}

	return overlay.NewAssembler(geometry, data, sink, hour, loading, log, opts...), nil
}
