package metrics

import (
	"time"

	obserrors "github.com/target/jobboard-ui-api/internal/observability/errors"
	"github.com/target/jobboard-ui-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultStale   = "stale"
)

// ToggleMetric describes one completed saved-job toggle.
type ToggleMetric struct {
	// Action is "save" or "unsave".
	Action   string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitToggle emits saved-job toggle metrics.
func EmitToggle(sink statsd.Sink, in ToggleMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"action":  in.Action,
		"outcome": in.Result,
	}
	addErrorClass(tags, in.Err)

	sink.Count("saved_jobs.toggle", 1, tags)
	if in.Duration > 0 {
		sink.Timing("saved_jobs.toggle.duration", in.Duration, CloneTags(tags))
	}
}

// EmitValidation emits the outcome of a remote session validation (kept, cleared, anonymous).
func EmitValidation(sink statsd.Sink, outcome string, d time.Duration) {
	if sink == nil {
		return
	}
	tags := map[string]string{"outcome": outcome}
	sink.Count("session.validate", 1, tags)
	if d > 0 {
		sink.Timing("session.validate.duration", d, CloneTags(tags))
	}
}

// EmitBackendCall records latency and result of a backend request.
func EmitBackendCall(sink statsd.Sink, op string, d time.Duration, err error) {
	if sink == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	tags := map[string]string{"op": op, "result": result}
	addErrorClass(tags, err)
	sink.Timing("backend.request", d, tags)
}

func addErrorClass(tags map[string]string, err error) {
	if err == nil {
		return
	}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
