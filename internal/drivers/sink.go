package drivers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/e7canasta/motion-recorder/modules/trace"
)

// LogSink logs every frame at debug level and counts what it was told.
type LogSink struct {
	logger *slog.Logger

	emitted atomic.Uint64
	moving  atomic.Uint64
	stops   atomic.Uint64
}

// NewLogSink creates a sink logging to logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("component", "sink")}
}

// Emit records one actuator command.
func (s *LogSink) Emit(f trace.Frame) {
	n := s.emitted.Add(1)
	if !f.IsZero() {
		s.moving.Add(1)
	}
	s.logger.Debug("sink: emit", "n", n, "frame", f.String())
}

// Stop records an all-stop.
func (s *LogSink) Stop() {
	s.stops.Add(1)
	s.logger.Info("sink: all motors stopped", "emitted", s.emitted.Load())
}

// Stats returns the counters.
func (s *LogSink) Stats() SinkStats {
	return SinkStats{
		Emitted: s.emitted.Load(),
		Moving:  s.moving.Load(),
		Stops:   s.stops.Load(),
	}
}

// SinkStats holds actuator counters.
type SinkStats struct {
	Emitted uint64
	// Moving counts emitted frames with any non-zero channel.
	Moving uint64
	Stops  uint64
}

// IdleRate returns the percentage of emitted frames that commanded no
// motion.
func (s SinkStats) IdleRate() float64 {
	if s.Emitted == 0 {
		return 0.0
	}
	return float64(s.Emitted-s.Moving) / float64(s.Emitted) * 100.0
}

// jsonlRecord is one line written by JSONLSink.
type jsonlRecord struct {
	Seq     uint64    `json:"seq"`
	Event   string    `json:"event"`
	At      time.Time `json:"at"`
	Speed   int8      `json:"speed"`
	Lateral int8      `json:"lateral"`
	Turn    int8      `json:"turn"`
	Aux     int8      `json:"aux"`
	Lift    int8      `json:"lift"`
}

// JSONLSink writes one JSON object per actuator command, for replay in
// a simulator or diffing two runs.
type JSONLSink struct {
	mu  sync.Mutex
	w   *bufio.Writer
	enc *json.Encoder
	seq uint64
	err error
	now func() time.Time
}

// NewJSONLSink creates a sink writing to w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	bw := bufio.NewWriter(w)
	return &JSONLSink{w: bw, enc: json.NewEncoder(bw), now: time.Now}
}

// Emit writes an "emit" line.
func (s *JSONLSink) Emit(f trace.Frame) {
	s.write(jsonlRecord{
		Event:   "emit",
		Speed:   f.Speed,
		Lateral: f.Lateral,
		Turn:    f.Turn,
		Aux:     f.Aux,
		Lift:    f.Lift,
	})
}

// Stop writes a "stop" line and flushes.
func (s *JSONLSink) Stop() {
	s.write(jsonlRecord{Event: "stop"})
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = s.w.Flush()
	}
}

// Err returns the first write error. Emit and Stop have no error
// return, so callers check here after a run.
func (s *JSONLSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *JSONLSink) write(rec jsonlRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	rec.Seq = s.seq
	rec.At = s.now()
	s.seq++
	if err := s.enc.Encode(&rec); err != nil {
		s.err = fmt.Errorf("jsonl sink: %w", err)
	}
}
