package ranking

// Phase identifies one stage of a ranking search. Phases advance strictly in
// the order declared below; a search never revisits an earlier phase.
type Phase string

const (
	PhaseFiltering Phase = "filtering"
	PhaseDriveTime Phase = "drive_time"
	PhaseAvalanche Phase = "avalanche"
	PhaseWeather   Phase = "weather"
	PhaseScoring   Phase = "scoring"
	PhaseDone      Phase = "done"
)

// ProgressEvent is one typed progress notification emitted by the engine as a
// search advances through its phases. Count is the number of tours still in
// play after the phase, or the number of results for PhaseDone.
type ProgressEvent struct {
	Phase   Phase  `json:"phase"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// ProgressObserver receives phase events during a search. Implementations
// must be safe for use from the goroutine running the search; the engine
// calls OnProgress synchronously and in phase order.
type ProgressObserver interface {
	OnProgress(ev ProgressEvent)
}

// ProgressFunc adapts a plain function to ProgressObserver.
type ProgressFunc func(ev ProgressEvent)

// OnProgress calls f(ev).
func (f ProgressFunc) OnProgress(ev ProgressEvent) { f(ev) }

func notify(obs ProgressObserver, phase Phase, message string, count int) {
	if obs == nil {
		return
	}
	obs.OnProgress(ProgressEvent{Phase: phase, Message: message, Count: count})
}
