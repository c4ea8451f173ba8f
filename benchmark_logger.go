package amxbench

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Record statuses
const (
	StatusPass = "pass"
	StatusSkip = "skip"
	StatusFail = "fail"
)

// RunRecord is one session log entry.
type RunRecord struct {
	BenchmarkRun
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionLog writes every emitted row of a session to a JSON file. A nil
// *SessionLog discards everything.
type SessionLog struct {
	mu          sync.Mutex
	records     []RunRecord
	sessionFile string
	now         func() time.Time
}

// NewSessionLog creates logDir if needed and starts a session file named
// after sessionName and the current time.
func NewSessionLog(logDir, sessionName string) (*SessionLog, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &SessionLog{now: time.Now}
	timestamp := l.now().Format("20060102_150405")
	l.sessionFile = filepath.Join(logDir, fmt.Sprintf("%s_%s.json", sessionName, timestamp))

	// Write initial file
	if err := l.flush(); err != nil {
		return nil, err
	}
	return l, nil
}

// Path returns the session file path.
func (l *SessionLog) Path() string {
	if l == nil {
		return ""
	}
	return l.sessionFile
}

// LogRun records a measured row.
func (l *SessionLog) LogRun(run BenchmarkRun) error {
	return l.log(RunRecord{BenchmarkRun: run, Status: StatusPass})
}

// LogSkip records a configuration that was not run.
func (l *SessionLog) LogSkip(op Op, mode Mode, shape Shape, reason error) error {
	return l.log(RunRecord{
		BenchmarkRun: BenchmarkRun{Op: op, Mode: mode, Shape: shape},
		Status:       StatusSkip,
		Error:        reason.Error(),
	})
}

// LogFail records a configuration that aborted.
func (l *SessionLog) LogFail(op Op, mode Mode, shape Shape, err error) error {
	return l.log(RunRecord{
		BenchmarkRun: BenchmarkRun{Op: op, Mode: mode, Shape: shape},
		Status:       StatusFail,
		Error:        err.Error(),
	})
}

// Records returns a copy of the logged records.
func (l *SessionLog) Records() []RunRecord {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]RunRecord(nil), l.records...)
}

func (l *SessionLog) log(r RunRecord) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	r.Timestamp = l.now()
	l.records = append(l.records, r)

	// Flush to disk immediately to avoid losing data on crash
	return l.flush()
}

// flush writes records to disk
func (l *SessionLog) flush() error {
	data, err := json.MarshalIndent(l.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return os.WriteFile(l.sessionFile, data, 0644)
}

// LatestLogFile returns the most recently modified session file in logDir.
func LatestLogFile(logDir string) (string, error) {
	files, err := filepath.Glob(filepath.Join(logDir, "*.json"))
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no log files found in %s", logDir)
	}

	var latest string
	var latestTime time.Time
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestTime) {
			latest = file
			latestTime = info.ModTime()
		}
	}
	return latest, nil
}

// ReadSessionLog decodes a session file.
func ReadSessionLog(path string) ([]RunRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []RunRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// PrintSessionSummary writes a one-line-per-record summary of path to w.
func PrintSessionSummary(w io.Writer, path string) error {
	records, err := ReadSessionLog(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nBenchmark Summary from %s:\n", filepath.Base(path))
	fmt.Fprintln(w, strings.Repeat("=", 72))

	passed, skipped, failed := 0, 0, 0
	for _, r := range records {
		name := fmt.Sprintf("%s %s", r.Label(), r.Shape)
		switch r.Status {
		case StatusPass:
			passed++
			fmt.Fprintf(w, "✓ %-36s %14d ns %12.3f GFLOPS\n", name, r.Duration.Nanoseconds(), r.GFLOPS)
		case StatusSkip:
			skipped++
			fmt.Fprintf(w, "- %-36s SKIPPED: %s\n", name, r.Error)
		case StatusFail:
			failed++
			fmt.Fprintf(w, "✗ %-36s FAILED: %s\n", name, r.Error)
		}
	}

	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintf(w, "Total: %d | Passed: %d | Skipped: %d | Failed: %d\n",
		len(records), passed, skipped, failed)
	return nil
}
