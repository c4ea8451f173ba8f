package amxbench

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Comparison statuses
const (
	ComparePass    = "PASS"
	CompareMissing = "MISSING"
	CompareSlower  = "SLOWER"
	CompareFaster  = "FASTER"
)

// Comparison is one configuration measured in two sessions.
type Comparison struct {
	Key      string
	Status   string
	Baseline time.Duration
	Current  time.Duration
	Speedup  float64 // baseline / current
	Message  string
}

// recordKey identifies a configuration independent of its timing.
func recordKey(r RunRecord) string {
	return fmt.Sprintf("%s %s %s", r.Label(), r.Shape, r.Precision)
}

// CompareSessions matches the measured rows of current against baseline.
// A row slower by more than regress (1.1 = 10%) is SLOWER; one faster by
// more than the same factor is FASTER.
func CompareSessions(baseline, current []RunRecord, regress float64) []Comparison {
	passed := func(r RunRecord, _ int) bool { return r.Status == StatusPass }
	currentByKey := lo.KeyBy(lo.Filter(current, passed), recordKey)

	return lo.Map(lo.Filter(baseline, passed), func(base RunRecord, _ int) Comparison {
		c := Comparison{Key: recordKey(base), Baseline: base.Duration}
		curr, ok := currentByKey[c.Key]
		if !ok {
			c.Status = CompareMissing
			c.Message = "configuration missing in current session"
			return c
		}

		c.Current = curr.Duration
		if curr.Duration > 0 {
			c.Speedup = float64(base.Duration) / float64(curr.Duration)
		}
		switch {
		case c.Speedup > 0 && c.Speedup < 1/regress:
			c.Status = CompareSlower
			c.Message = fmt.Sprintf("%.2fx slower", 1/c.Speedup)
		case c.Speedup > regress:
			c.Status = CompareFaster
			c.Message = fmt.Sprintf("%.2fx faster", c.Speedup)
		default:
			c.Status = ComparePass
		}
		return c
	})
}

// PrintComparisons writes a status count and a row per comparison to w.
func PrintComparisons(w io.Writer, comparisons []Comparison) {
	counts := lo.CountValuesBy(comparisons, func(c Comparison) string { return c.Status })

	fmt.Fprintf(w, "Total configurations: %d\n", len(comparisons))
	for _, s := range []string{ComparePass, CompareSlower, CompareFaster, CompareMissing} {
		fmt.Fprintf(w, "  %-8s %d\n", s+":", counts[s])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-44s %-8s %14s %14s %8s\n", "Configuration", "Status", "Baseline (ns)", "Current (ns)", "Speedup")
	fmt.Fprintln(w, strings.Repeat("-", 92))
	for _, c := range comparisons {
		fmt.Fprintf(w, "%-44s %-8s %14d %14d %8.2f\n",
			c.Key, c.Status, c.Baseline.Nanoseconds(), c.Current.Nanoseconds(), c.Speedup)
	}
}

// HasRegressions reports whether any comparison is SLOWER or MISSING.
func HasRegressions(comparisons []Comparison) bool {
	return lo.SomeBy(comparisons, func(c Comparison) bool {
		return c.Status == CompareSlower || c.Status == CompareMissing
	})
}
