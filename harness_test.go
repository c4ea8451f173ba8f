package amxbench

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock hands out the given durations, one per timed iteration.
func fakeClock(h *Harness, durations ...time.Duration) {
	i := 0
	h.now = func() time.Time { return time.Time{} }
	h.since = func(time.Time) time.Duration {
		d := durations[i%len(durations)]
		i++
		return d
	}
}

func nopCall() (Call, error) {
	return func() error { return nil }, nil
}

func TestHarnessReportsLastIteration(t *testing.T) {
	h := NewHarness(4, ReportLast, nil)
	fakeClock(h, 40, 10, 30, 25)

	timing, err := h.Measure("IP / SIMD", Shape{64, 64, 64}, nopCall)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{40, 10, 30, 25}, timing.Durations)
	assert.Equal(t, time.Duration(25), timing.Reported)
	assert.Equal(t, PhaseDone, h.Phase())
}

func TestReportPolicies(t *testing.T) {
	durations := []time.Duration{40, 10, 30, 25}
	tests := []struct {
		policy ReportPolicy
		want   time.Duration
	}{
		{ReportLast, 25},
		{ReportMin, 10},
		{ReportMedian, 27}, // (25+30)/2, truncated
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Pick(durations))
		})
	}

	assert.Equal(t, time.Duration(30), ReportMedian.Pick([]time.Duration{40, 10, 30}))
	assert.Zero(t, ReportMin.Pick(nil))
	// Pick must not reorder its input
	assert.Equal(t, []time.Duration{40, 10, 30, 25}, durations)
}

func TestParseReportPolicy(t *testing.T) {
	for in, want := range map[string]ReportPolicy{"last": ReportLast, "": ReportLast, "MIN": ReportMin, " median ": ReportMedian} {
		got, err := ParseReportPolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseReportPolicy("mean")
	assert.True(t, IsInvalidArgError(err))
}

func TestHarnessWarmRunsOnceAndUntimed(t *testing.T) {
	h := NewHarness(3, ReportLast, nil)
	fakeClock(h, 5)

	warmed, calls := 0, 0
	var phaseInWarm, phaseInCall Phase
	timing, err := h.Measure("GEMM / Scalar", Shape{1, 1, 1}, func() (Call, error) {
		warmed++
		phaseInWarm = h.Phase()
		return func() error {
			calls++
			phaseInCall = h.Phase()
			return nil
		}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, warmed)
	assert.Equal(t, 3, calls)
	assert.Len(t, timing.Durations, 3)
	assert.Equal(t, PhaseWarming, phaseInWarm)
	assert.Equal(t, PhaseMeasuring, phaseInCall)
}

func TestHarnessErrorsAbort(t *testing.T) {
	h := NewHarness(5, ReportLast, nil)
	fakeClock(h, 1)

	boom := errors.New("boom")
	_, err := h.Measure("x", Shape{}, func() (Call, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, PhaseIdle, h.Phase())

	calls := 0
	_, err = h.Measure("x", Shape{}, func() (Call, error) {
		return func() error {
			calls++
			if calls == 2 {
				return boom
			}
			return nil
		}, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)

	h.Iterations = 0
	_, err = h.Measure("x", Shape{}, nopCall)
	assert.True(t, IsInvalidArgError(err))
}

func TestHarnessDebugLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := NewHarness(2, ReportLast, logger)
	h.Debug = true
	fakeClock(h, 1500)

	_, err := h.Measure("ip", Shape{N1: 64, N2: 128, M: 256}, nopCall)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "ip: dims: 64,128,256: itr #0: 1500 ns")
	assert.Contains(t, out, "ip: dims: 64,128,256: itr #1: 1500 ns")

	buf.Reset()
	h.Debug = false
	_, err = h.Measure("ip", Shape{N1: 64, N2: 128, M: 256}, nopCall)
	require.NoError(t, err)
	assert.False(t, strings.Contains(buf.String(), "itr #"))
}
