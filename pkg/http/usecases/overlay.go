package usecases

import (
	"context"
	"errors"

	"github.com/lintang-b-s/osmlr-overlay/pkg"
	"github.com/lintang-b-s/osmlr-overlay/pkg/concurrent"
	"github.com/lintang-b-s/osmlr-overlay/pkg/geo"
	"github.com/lintang-b-s/osmlr-overlay/pkg/overlay"
	"go.uber.org/zap"
)

const MaxHour = 167

type Status struct {
	Loading bool `json:"loading"`
	Hour    int  `json:"hour"`
}

type OverlayService struct {
	ctx       context.Context
	log       *zap.Logger
	assembler OverlayAssembler
	hour      *overlay.Hour
	loading   *overlay.Loading
	worker    *concurrent.BackgroundWorker[geo.BoundingBox]
}

// New starts workers goroutines that run region requests in the background. They stop
// once ctx is done and the queue is drained.
func New(ctx context.Context, log *zap.Logger, assembler OverlayAssembler, hour *overlay.Hour,
	loading *overlay.Loading, workers int) *OverlayService {
	s := &OverlayService{
		ctx:       ctx,
		log:       log,
		assembler: assembler,
		hour:      hour,
		loading:   loading,
	}
	if workers < 1 {
		workers = 1
	}
	s.worker = concurrent.NewBackgroundWorker(workers, workers*4, s.showRegion)
	s.worker.Start()

	go func() {
		<-ctx.Done()
		s.worker.Close()
	}()
	return s
}

func (s *OverlayService) showRegion(bbox geo.BoundingBox) {
	_, err := s.assembler.ShowRegion(s.ctx, &bbox)
	if err != nil && !errors.Is(err, overlay.ErrSuperseded) {
		s.log.Warn("region request failed", zap.Error(err))
	}
}

// ShowRegion validates bbox and queues the overlay build without waiting for a free slot.
func (s *OverlayService) ShowRegion(bbox geo.BoundingBox) error {
	if err := bbox.Validate(); err != nil {
		return err
	}
	if err := s.ctx.Err(); err != nil {
		return pkg.WrapErrorf(err, pkg.ErrServiceUnavailable, "overlay service stopped")
	}
	if err := s.worker.TryTriggerProcessing(bbox); err != nil {
		return pkg.WrapErrorf(err, pkg.ErrServiceUnavailable, "queue overlay build")
	}
	return nil
}

func (s *OverlayService) Clear(ctx context.Context) error {
	_, err := s.assembler.Clear(ctx)
	return err
}

func (s *OverlayService) Routes(ctx context.Context) (overlay.Overlay, error) {
	o, ok, err := s.assembler.Current(ctx)
	if err != nil {
		return overlay.Overlay{}, pkg.WrapErrorf(err, pkg.ErrInternalServerError, "read overlay")
	}
	if !ok {
		return overlay.Overlay{}, pkg.WrapErrorf(nil, pkg.ErrNotFound, "no overlay published")
	}
	return o, nil
}

func (s *OverlayService) Status() Status {
	return Status{
		Loading: s.loading.IsLoading(),
		Hour:    s.hour.Hour(),
	}
}

func (s *OverlayService) SetHour(hour int) error {
	if hour < 0 || hour > MaxHour {
		return pkg.WrapErrorf(nil, pkg.ErrBadParamInput, "hour %d outside [0, %d]", hour, MaxHour)
	}
	s.hour.Set(hour)
	return nil
}
