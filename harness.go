package amxbench

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// Phase is the state of a Harness measurement.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseWarming
	PhaseMeasuring
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWarming:
		return "warming"
	case PhaseMeasuring:
		return "measuring"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// ReportPolicy selects which of the K iteration durations is reported.
type ReportPolicy int

const (
	// ReportLast reports the final iteration
	ReportLast ReportPolicy = iota
	// ReportMin reports the fastest iteration
	ReportMin
	// ReportMedian reports the median iteration
	ReportMedian
)

func (p ReportPolicy) String() string {
	switch p {
	case ReportLast:
		return "last"
	case ReportMin:
		return "min"
	case ReportMedian:
		return "median"
	default:
		return "unknown"
	}
}

// ParseReportPolicy parses a --report flag value.
func ParseReportPolicy(s string) (ReportPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last":
		return ReportLast, nil
	case "min":
		return ReportMin, nil
	case "median":
		return ReportMedian, nil
	}
	return 0, NewInvalidArgError("ParseReportPolicy", fmt.Sprintf("unknown report policy %q", s))
}

// Pick returns the reported duration of durations under p.
func (p ReportPolicy) Pick(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	switch p {
	case ReportMin:
		return slices.Min(durations)
	case ReportMedian:
		sorted := slices.Clone(durations)
		slices.Sort(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 1 {
			return sorted[mid]
		}
		return (sorted[mid-1] + sorted[mid]) / 2
	default:
		return durations[len(durations)-1]
	}
}

// Timing is the outcome of one Measure call.
type Timing struct {
	// Durations holds every timed iteration in order
	Durations []time.Duration

	// Reported is the duration selected by the policy
	Reported time.Duration
}

// Harness times a prepared call K times.
//
// Measure walks Idle → Warming → Measuring → Done. The warm step runs once
// and is never timed. A Harness is not safe for concurrent use.
type Harness struct {
	Iterations int
	Policy     ReportPolicy

	// Debug logs every iteration at debug level
	Debug bool

	now    func() time.Time
	since  func(time.Time) time.Duration
	logger *slog.Logger
	phase  Phase
}

// NewHarness creates a harness using the monotonic wall clock.
func NewHarness(iterations int, policy ReportPolicy, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harness{
		Iterations: iterations,
		Policy:     policy,
		now:        time.Now,
		since:      time.Since,
		logger:     logger,
	}
}

// Phase returns the current phase.
func (h *Harness) Phase() Phase {
	return h.phase
}

// Measure warms up once, then times the returned call Iterations times.
// An error from warm or from any iteration aborts the measurement.
func (h *Harness) Measure(label string, shape Shape, warm func() (Call, error)) (Timing, error) {
	h.phase = PhaseIdle
	if h.Iterations <= 0 {
		return Timing{}, NewInvalidArgError("Measure", fmt.Sprintf("iterations must be positive, got %d", h.Iterations))
	}

	h.phase = PhaseWarming
	call, err := warm()
	if err != nil {
		h.phase = PhaseIdle
		return Timing{}, err
	}

	h.phase = PhaseMeasuring
	durations := make([]time.Duration, h.Iterations)
	debug := h.Debug && h.logger.Enabled(context.Background(), slog.LevelDebug)
	for i := range durations {
		start := h.now()
		if err := call(); err != nil {
			h.phase = PhaseIdle
			return Timing{}, err
		}
		durations[i] = h.since(start)
		if debug {
			h.logger.Debug(fmt.Sprintf("%s: dims: %d,%d,%d: itr #%d: %d ns",
				label, shape.N1, shape.N2, shape.M, i, durations[i].Nanoseconds()))
		}
	}

	h.phase = PhaseDone
	return Timing{Durations: durations, Reported: h.Policy.Pick(durations)}, nil
}
