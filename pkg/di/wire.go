//go:build wireinject

//go:generate wire
package di

import (
	"context"

	"github.com/lintang-b-s/osmlr-overlay/pkg/di/config"
	shortcontext "github.com/lintang-b-s/osmlr-overlay/pkg/di/context"
	kv_di "github.com/lintang-b-s/osmlr-overlay/pkg/di/kv"
	logger_di "github.com/lintang-b-s/osmlr-overlay/pkg/di/logger"
	overlay_di "github.com/lintang-b-s/osmlr-overlay/pkg/di/overlay"
	overlayHttp "github.com/lintang-b-s/osmlr-overlay/pkg/http"
	"github.com/lintang-b-s/osmlr-overlay/pkg/http/http-router/controllers"
	"github.com/lintang-b-s/osmlr-overlay/pkg/http/usecases"
	"github.com/lintang-b-s/osmlr-overlay/pkg/overlay"

	"github.com/google/wire"
	"go.uber.org/zap"
)

var defaultSet = wire.NewSet(
	shortcontext.New,
	config.New,
	logger_di.New,
	kv_di.New,
	overlay_di.NewHour,
	overlay_di.NewLoading,
	overlay_di.New,
)

var overlaySet = wire.NewSet(
	defaultSet,
	NewOverlayService,
	NewOverlayAPIServer,
)

func NewOverlayService(ctx context.Context, cfg *config.Config, log *zap.Logger, assembler *overlay.Assembler,
	hour *overlay.Hour, loading *overlay.Loading) controllers.OverlayService {
	return usecases.New(ctx, log, assembler, hour, loading, cfg.Workers)
}

func NewOverlayAPIServer(ctx context.Context, log *zap.Logger,
	overlayService controllers.OverlayService) (*overlayHttp.Server, error) {
	api := overlayHttp.NewServer(log)

	apiService, err := api.Use(
		ctx, log, overlayService,
	)
	if err != nil {
		return nil, err
	}

	return apiService, nil
}

func InitializeOverlayService() (*overlayHttp.Server, func(), error) {

	panic(wire.Build(overlaySet))
}
