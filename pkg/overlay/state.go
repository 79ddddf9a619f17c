package overlay

// State of one pipeline invocation.
type State int

const (
	Idle State = iota
	RouteResolved
	TilesAddressed
	GeometryFetched
	Clipped
	SegmentsParsed
	SpeedDataFetched
	Joined
	Published
	Cleared
	Failed
	// Superseded: a newer invocation or a clear started before this one could publish.
	Superseded
)

var stateNames = [...]string{
	Idle:             "idle",
	RouteResolved:    "route_resolved",
	TilesAddressed:   "tiles_addressed",
	GeometryFetched:  "geometry_fetched",
	Clipped:          "clipped",
	SegmentsParsed:   "segments_parsed",
	SpeedDataFetched: "speed_data_fetched",
	Joined:           "joined",
	Published:        "published",
	Cleared:          "cleared",
	Failed:           "failed",
	Superseded:       "superseded",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s State) Terminal() bool {
	return s == Published || s == Cleared || s == Failed || s == Superseded
}

// Observer is told about every state transition of every invocation. Calls for one
// invocation are sequential, calls for different invocations may be concurrent.
type Observer interface {
	OnTransition(invocationID string, from, to State)
}

type ObserverFunc func(invocationID string, from, to State)

func (f ObserverFunc) OnTransition(invocationID string, from, to State) {
	f(invocationID, from, to)
}

type nopObserver struct{}

func (nopObserver) OnTransition(string, State, State) {}
