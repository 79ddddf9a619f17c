package http_router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/lintang-b-s/osmlr-overlay/pkg/http/http-router/controllers"
	router_helper "github.com/lintang-b-s/osmlr-overlay/pkg/http/http-router/router-helper"
	http_server "github.com/lintang-b-s/osmlr-overlay/pkg/http/server"
	"github.com/lintang-b-s/osmlr-overlay/pkg/metrics"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type API struct {
	log *zap.Logger
}

func NewAPI(log *zap.Logger) *API {
	return &API{log: log}
}

// Handler builds the router with the full middleware chain.
func (api *API) Handler(overlayService controllers.OverlayService) http.Handler {
	router := httprouter.New()

	corsHandler := cors.New(cors.Options{ //nolint:gocritic // ignore
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, //nolint:mnd // ignore

	})

	group := router_helper.NewRouteGroup(router, "/api")

	overlayRoutes := controllers.New(overlayService, api.log)

	overlayRoutes.Routes(group.Group("/overlay"))

	router.Handler(http.MethodGet, "/metrics", metrics.Handler())

	return alice.New(corsHandler.Handler, EnforceJSONHandler, api.recoverPanic,
		RealIP, Heartbeat("healthz"), Logger(api.log), Labels).Then(router)
}

func (api *API) Run(
	ctx context.Context,
	config http_server.Config,
	log *zap.Logger,

	overlayService controllers.OverlayService,
) error {
	log.Info("Run httprouter API")

	srv := http_server.New(ctx, api.Handler(overlayService), config)
	log.Info(fmt.Sprintf("API run on port %d", config.Port))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("API shutdown", zap.Error(err))
		}
	}()

	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
