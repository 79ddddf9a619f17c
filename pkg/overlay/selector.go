package overlay

import "sync/atomic"

// HourSelector supplies the time-of-day bucket speeds are read for.
type HourSelector interface {
	Hour() int
}

type Hour struct {
	hour atomic.Int64
}

func NewHour(hour int) *Hour {
	h := &Hour{}
	h.Set(hour)
	return h
}

func (h *Hour) Hour() int {
	return int(h.hour.Load())
}

func (h *Hour) Set(hour int) {
	h.hour.Store(int64(hour))
}

// LoadingIndicator is raised when geometry fetching starts and lowered once the invocation
// ends.
type LoadingIndicator interface {
	Start()
	Stop()
}

// Loading counts invocations between Start and Stop, it reports loading while any is
// in flight.
type Loading struct {
	inflight atomic.Int64
}

func NewLoading() *Loading {
	return &Loading{}
}

func (l *Loading) Start() {
	l.inflight.Add(1)
}

func (l *Loading) Stop() {
	if l.inflight.Add(-1) < 0 {
		l.inflight.Store(0)
	}
}

func (l *Loading) IsLoading() bool {
	return l.inflight.Load() > 0
}
