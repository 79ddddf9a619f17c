package controllers

import (
	"context"

	"github.com/lintang-b-s/osmlr-overlay/pkg/geo"
	"github.com/lintang-b-s/osmlr-overlay/pkg/http/usecases"
	"github.com/lintang-b-s/osmlr-overlay/pkg/overlay"
)

type OverlayService interface {
	ShowRegion(bbox geo.BoundingBox) error
	Clear(ctx context.Context) error
	Routes(ctx context.Context) (overlay.Overlay, error)
	Status() usecases.Status
	SetHour(hour int) error
}
