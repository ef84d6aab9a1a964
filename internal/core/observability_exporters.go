package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq uint64

// operationEntity returns the store half of an operation name, "moves" for
// "moves.complete".
func operationEntity(operation string) string {
	if i := strings.IndexByte(operation, '.'); i > 0 {
		return operation[:i]
	}
	return operation
}

// ExpvarMetricsRecorder publishes store action totals through expvar, for
// processes that expose /debug/vars instead of a Prometheus endpoint.
type ExpvarMetricsRecorder struct {
	name      string
	clock     Clock
	mu        sync.Mutex
	durations map[string]float64
	results   map[string]map[string]int64
	lastFail  map[string]time.Time
}

// ExpvarMetricsSnapshot is a read-only view of the recorded metrics. Failures
// counts failed actions per store ("pokemon", "moves", "ai").
type ExpvarMetricsSnapshot struct {
	DurationsMS map[string]float64          `json:"durations_ms_total"`
	Results     map[string]map[string]int64 `json:"results_total"`
	Failures    map[string]int64            `json:"failures_by_store"`
	LastFailure map[string]time.Time        `json:"last_failure,omitempty"`
	RecordedAt  time.Time                   `json:"recorded_at"`
}

// NewExpvarMetricsRecorder publishes a recorder under name; an empty name gets
// a unique one. A nil clock uses the wall clock.
func NewExpvarMetricsRecorder(name string, clock Clock) *ExpvarMetricsRecorder {
	if name == "" {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("pokemontodo_store_metrics_%d", id)
	}
	if clock == nil {
		clock = RealClock{}
	}
	rec := &ExpvarMetricsRecorder{
		name:      name,
		clock:     clock,
		durations: make(map[string]float64),
		results:   make(map[string]map[string]int64),
		lastFail:  make(map[string]time.Time),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

func (r *ExpvarMetricsRecorder) Name() string { return r.name }

func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := ExpvarMetricsSnapshot{
		DurationsMS: make(map[string]float64, len(r.durations)),
		Results:     make(map[string]map[string]int64, len(r.results)),
		Failures:    make(map[string]int64),
		LastFailure: make(map[string]time.Time, len(r.lastFail)),
		RecordedAt:  r.clock.Now().UTC(),
	}
	for op, total := range r.durations {
		snap.DurationsMS[op] = total
	}
	for op, counts := range r.results {
		cpy := make(map[string]int64, len(counts))
		for status, n := range counts {
			cpy[status] = n
		}
		snap.Results[op] = cpy
		snap.Failures[operationEntity(op)] += counts["error"]
	}
	for entity, at := range r.lastFail {
		snap.LastFailure[entity] = at
	}
	return snap
}

// Observe records the outcome of a store action such as "pokemon.create".
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations[operation] += float64(duration) / float64(time.Millisecond)
	if _, ok := r.results[operation]; !ok {
		r.results[operation] = make(map[string]int64, 2)
	}
	r.results[operation][status]++
	if !success {
		r.lastFail[operationEntity(operation)] = r.clock.Now().UTC()
	}
}

// JSONTraceEntry is one store action span as written by JSONTraceTracer.
type JSONTraceEntry struct {
	Store      string    `json:"store"`
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTraceTracer writes spans as JSON lines and keeps them for inspection.
// The CLI enables it with --trace.
type JSONTraceTracer struct {
	clock   Clock
	mu      sync.Mutex
	entries []JSONTraceEntry
	enc     *json.Encoder
}

// NewJSONTracer writes spans to w (nil disables writing). A nil clock uses
// the wall clock.
func NewJSONTracer(w io.Writer, clock Clock) *JSONTraceTracer {
	if clock == nil {
		clock = RealClock{}
	}
	t := &JSONTraceTracer{clock: clock}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Entries returns a copy of all recorded spans.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]JSONTraceEntry(nil), t.entries...)
}

func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{tracer: t, operation: operation, started: t.clock.Now().UTC()}
}

type jsonTraceSpan struct {
	tracer    *JSONTraceTracer
	operation string
	started   time.Time
}

func (s *jsonTraceSpan) End(err error) {
	ended := s.tracer.clock.Now().UTC()
	entry := JSONTraceEntry{
		Store:      operationEntity(s.operation),
		Operation:  s.operation,
		Status:     "success",
		DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
		StartedAt:  s.started,
		EndedAt:    ended,
	}
	if err != nil {
		entry.Status = "error"
		entry.Error = err.Error()
	}

	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	s.tracer.entries = append(s.tracer.entries, entry)
	if s.tracer.enc != nil {
		_ = s.tracer.enc.Encode(entry)
	}
}
