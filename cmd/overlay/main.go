package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/k0kubun/go-ansi"
	"github.com/lintang-b-s/osmlr-overlay/pkg/di/config"
	logger_di "github.com/lintang-b-s/osmlr-overlay/pkg/di/logger"
	overlay_di "github.com/lintang-b-s/osmlr-overlay/pkg/di/overlay"
	"github.com/lintang-b-s/osmlr-overlay/pkg/geo"
	"github.com/lintang-b-s/osmlr-overlay/pkg/overlay"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

var (
	west        = flag.Float64("west", 0, "west edge of the bounding box")
	south       = flag.Float64("south", 0, "south edge of the bounding box")
	east        = flag.Float64("east", 0, "east edge of the bounding box")
	north       = flag.Float64("north", 0, "north edge of the bounding box")
	hour        = flag.Int("hour", -1, "hour of week to read speeds for, defaults to DEFAULT_HOUR")
	output      = flag.String("o", "overlay.geojson", "output file for the published feature collection")
	routeHost   = flag.String("route", "", "valhalla host, overrides ROUTE_HOST")
	geometryURL = flag.String("geometry-url", "", "geometry tile base url, overrides GEOMETRY_TILE_URL")
	dataURL     = flag.String("data-url", "", "data tile base url, overrides DATA_TILE_URL")
	dataFormat  = flag.String("format", "", "data tile format json or spd, overrides DATA_TILE_FORMAT")
)

// pipeline stages from Idle to Published
const stages = 8

func newProgressObserver() (*progressbar.ProgressBar, overlay.Observer) {
	bar := progressbar.NewOptions(stages,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription("[cyan]building overlay..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	observer := overlay.ObserverFunc(func(_ string, _, to overlay.State) {
		bar.Describe(fmt.Sprintf("[cyan]%s", to))
		if to == overlay.Failed || to == overlay.Superseded {
			return
		}
		_ = bar.Add(1)
	})
	return bar, observer
}

func main() {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}
	cfg.SinkDriver = "memory"
	if *routeHost != "" {
		cfg.RouteHost = *routeHost
	}
	if *geometryURL != "" {
		cfg.GeometryTileURL = *geometryURL
	}
	if *dataURL != "" {
		cfg.DataTileURL = *dataURL
	}
	if *dataFormat != "" {
		cfg.DataTileFormat = *dataFormat
	}
	if *hour >= 0 {
		cfg.DefaultHour = *hour
	}

	logger, cleanup, err := logger_di.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	bar, observer := newProgressObserver()
	sink := overlay.NewMemorySink()
	assembler, err := overlay_di.Build(cfg, logger, sink, overlay_di.NewHour(cfg), overlay_di.NewLoading(), observer)
	if err != nil {
		logger.Fatal("build assembler", zap.Error(err))
	}

	bbox := geo.NewBoundingBox(*west, *south, *east, *north)
	result, err := assembler.ShowRegion(ctx, &bbox)
	_ = bar.Finish()
	fmt.Println()
	if err != nil {
		logger.Fatal("overlay failed", zap.Error(err))
	}

	buf, err := result.Overlay.MarshalJSON()
	if err != nil {
		logger.Fatal("marshal overlay", zap.Error(err))
	}
	if err := os.WriteFile(*output, buf, 0644); err != nil {
		logger.Fatal("write overlay", zap.Error(err))
	}

	logger.Info("overlay written",
		zap.String("file", *output),
		zap.Int("tiles", len(result.Suffixes)),
		zap.Int("features", result.Features),
		zap.Int("segments", result.Segments),
		zap.Int("speeds", result.SpeedsAttached))
}
