// Package summary writes evaluation summary records as JSON lines under
// <root>/eval, one record per metric per round, keyed by the trainer's
// global counter and step-metric values.
package summary

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/drivelab/driverl/metrics"
)

// Record is one metric result at one training step.
type Record struct {
	GlobalCounter int64            `json:"global_counter"`
	StepMetrics   map[string]int64 `json:"step_metrics,omitempty"`
	Metric        string           `json:"metric"`
	Value         float64          `json:"value"`
	Episodes      int              `json:"episodes,omitempty"`
	Time          time.Time        `json:"time"`
}

// Writer appends summary records to a single stream. Safe for use from one
// goroutine at a time per round; a mutex guards against overlapping
// close/record calls.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	gz   *gzip.Writer
	out  io.Writer
}

// NewWriter creates (or appends to) the summary stream under rootDir/eval.
func NewWriter(rootDir string, compress bool) (*Writer, error) {
	dir := filepath.Join(rootDir, "eval")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating summary dir: %w", err)
	}
	name := filepath.Join(dir, "summaries.jsonl")
	if compress {
		name += ".gz"
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening summary file: %w", err)
	}
	w := &Writer{file: f, out: f}
	if compress {
		w.gz = gzip.NewWriter(f)
		w.out = w.gz
	}
	return w, nil
}

// Write records one round: one line per metric.
func (w *Writer) Write(globalCounter int64, stepMetrics map[string]int64, ms []metrics.StepMetric) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.out == nil {
		return fmt.Errorf("summary writer is closed")
	}
	now := time.Now()
	for _, m := range ms {
		rec := Record{
			GlobalCounter: globalCounter,
			StepMetrics:   stepMetrics,
			Metric:        m.Name(),
			Value:         m.Result(),
			Time:          now,
		}
		if s, ok := m.(interface{ Episodes() int }); ok {
			rec.Episodes = s.Episodes()
		}
		out, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshalling summary record: %w", err)
		}
		out = append(out, '\n')
		if _, err := w.out.Write(out); err != nil {
			return fmt.Errorf("writing summary record: %w", err)
		}
	}
	return nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.out == nil {
		return nil
	}
	w.out = nil
	if w.gz != nil {
		if err := w.gz.Close(); err != nil {
			log.Err(err).Msg("closing summary gzip writer")
		}
	}
	return w.file.Close()
}

// Read loads all records from a summary file, decompressing if needed.
func Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if filepath.Ext(path) == ".gz" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var recs []Record
	dec := json.NewDecoder(r)
	for {
		var rec Record
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("decoding summary record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
