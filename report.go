package amxbench

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BenchmarkRun is one row of the results table.
type BenchmarkRun struct {
	Op            Op            `json:"op"`
	Mode          Mode          `json:"mode"`
	Shape         Shape         `json:"shape"`
	Precision     Precision     `json:"precision"`
	DataSizeBytes int64         `json:"data_size_bytes"`
	TotalFlop     int64         `json:"total_flop"`
	Duration      time.Duration `json:"duration_ns"`
	GFLOPS        float64       `json:"gflops"`
}

// NewRun derives the throughput figures of one measured configuration.
func NewRun(op Op, mode Mode, shape Shape, p Precision, d time.Duration) BenchmarkRun {
	flop := OpCount(op, shape)
	return BenchmarkRun{
		Op:            op,
		Mode:          mode,
		Shape:         shape,
		Precision:     p,
		DataSizeBytes: Footprint(op, shape, p.ElementSize()),
		TotalFlop:     flop,
		Duration:      d,
		GFLOPS:        GFLOPS(flop, d),
	}
}

// Label returns the Mode column cell, e.g. "IP / AMX".
func (r BenchmarkRun) Label() string {
	return r.Op.String() + " / " + r.Mode.String()
}

var tableHeader = []string{
	"Mode", "N1 / N2 / M", "Data size (MiB)", "Total FLOP", "Duration (ns)", "GFLOPS",
}

// Reporter accumulates rows and prints them as a table. Printing starts a
// fresh table.
type Reporter struct {
	w       io.Writer
	printer *message.Printer
	table   []BenchmarkRun
}

// NewReporter creates a reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{
		w:       w,
		printer: message.NewPrinter(language.English),
	}
}

// Add appends a row.
func (r *Reporter) Add(run BenchmarkRun) {
	r.table = append(r.table, run)
}

// Rows returns a copy of the pending rows in insertion order.
func (r *Reporter) Rows() []BenchmarkRun {
	return append([]BenchmarkRun(nil), r.table...)
}

// Len returns the number of pending rows.
func (r *Reporter) Len() int {
	return len(r.table)
}

// Print renders the pending rows and resets the table, also when writing
// fails.
func (r *Reporter) Print() error {
	defer func() { r.table = nil }()
	tw := tabwriter.NewWriter(r.w, 0, 0, 1, ' ', tabwriter.AlignRight|tabwriter.Debug)

	lines := append([]string{strings.Join(tableHeader, "\t")},
		lo.Map(r.table, func(run BenchmarkRun, _ int) string {
			return strings.Join(r.cells(run), "\t")
		})...)
	for _, line := range lines {
		if _, err := fmt.Fprint(tw, line, "\t\n"); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func (r *Reporter) cells(run BenchmarkRun) []string {
	return []string{
		run.Label(),
		fmt.Sprintf("%d / %d / %d", run.Shape.N1, run.Shape.N2, run.Shape.M),
		r.printer.Sprintf("%.2f", MiB(run.DataSizeBytes)),
		r.printer.Sprintf("%d", run.TotalFlop),
		r.printer.Sprintf("%d", run.Duration.Nanoseconds()),
		r.printer.Sprintf("%.3f", run.GFLOPS),
	}
}
