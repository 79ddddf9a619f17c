package usecases

import (
	"context"

	"github.com/lintang-b-s/osmlr-overlay/pkg/geo"
	"github.com/lintang-b-s/osmlr-overlay/pkg/overlay"
)

type OverlayAssembler interface {
	ShowRegion(ctx context.Context, bbox *geo.BoundingBox) (overlay.Result, error)
	Clear(ctx context.Context) (overlay.Result, error)
	Current(ctx context.Context) (overlay.Overlay, bool, error)
}
