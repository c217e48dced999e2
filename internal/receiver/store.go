package receiver

import (
	"fmt"
	"sort"
	"sync"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"

	"github.com/GriffinCanCode/observability-demo/internal/jaeger"
)

// DefaultMaxTraces bounds the store when no limit is given.
const DefaultMaxTraces = 100

// Store keeps the most recent traces in memory. When full, the trace that
// was first seen longest ago is evicted.
type Store struct {
	mu     sync.RWMutex
	max    int
	traces map[string]*entry
	order  []string
}

type entry struct {
	trace     jaeger.Trace
	processes map[string]string // service name -> process ID
}

// NewStore creates a store holding at most max traces.
func NewStore(max int) *Store {
	if max <= 0 {
		max = DefaultMaxTraces
	}
	return &Store{
		max:    max,
		traces: make(map[string]*entry, max),
	}
}

// Add ingests every span of req and returns how many were stored.
func (s *Store) Add(req *coltracepb.ExportTraceServiceRequest) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, rs := range req.GetResourceSpans() {
		service, processTags := resourceService(rs)

		for _, ss := range rs.GetScopeSpans() {
			for _, span := range ss.GetSpans() {
				if len(span.GetTraceId()) == 0 || len(span.GetSpanId()) == 0 {
					continue
				}

				e := s.entryFor(span.GetTraceId())
				processID := e.process(service, processTags)
				e.trace.Spans = append(e.trace.Spans, convertSpan(span, ss.GetScope(), processID))
				added++
			}
		}
	}
	return added
}

// entryFor returns the entry for traceID, creating and evicting as needed.
// Callers hold s.mu.
func (s *Store) entryFor(raw []byte) *entry {
	id := fmt.Sprintf("%x", raw)
	if e, ok := s.traces[id]; ok {
		return e
	}

	for len(s.order) >= s.max {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.traces, oldest)
	}

	e := &entry{
		trace: jaeger.Trace{
			TraceID:   id,
			Processes: make(map[string]jaeger.Process),
		},
		processes: make(map[string]string),
	}
	s.traces[id] = e
	s.order = append(s.order, id)
	return e
}

func (e *entry) process(service string, tags []jaeger.KeyValue) string {
	if id, ok := e.processes[service]; ok {
		return id
	}
	id := fmt.Sprintf("p%d", len(e.processes)+1)
	if tags == nil {
		tags = []jaeger.KeyValue{}
	}
	e.processes[service] = id
	e.trace.Processes[id] = jaeger.Process{ServiceName: service, Tags: tags}
	return id
}

// Len returns the number of stored traces.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.traces)
}

// Services returns every service name seen in stored traces, sorted.
func (s *Store) Services() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, e := range s.traces {
		for service := range e.processes {
			seen[service] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Trace returns a copy of the trace with the given hex ID.
func (s *Store) Trace(id string) (jaeger.Trace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.traces[id]
	if !ok {
		return jaeger.Trace{}, false
	}
	return e.snapshot(), true
}

// Traces returns up to limit traces containing service, newest first. An
// empty service matches every trace.
func (s *Store) Traces(service string, limit int) []jaeger.Trace {
	s.mu.RLock()
	out := make([]jaeger.Trace, 0, len(s.traces))
	for _, e := range s.traces {
		if service != "" {
			if _, ok := e.processes[service]; !ok {
				continue
			}
		}
		out = append(out, e.snapshot())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime() > out[j].StartTime()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// snapshot copies the trace so callers can read it without the lock.
// Callers hold s.mu.
func (e *entry) snapshot() jaeger.Trace {
	spans := make([]jaeger.Span, len(e.trace.Spans))
	copy(spans, e.trace.Spans)
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].StartTime < spans[j].StartTime
	})

	processes := make(map[string]jaeger.Process, len(e.trace.Processes))
	for id, p := range e.trace.Processes {
		processes[id] = p
	}

	return jaeger.Trace{
		TraceID:   e.trace.TraceID,
		Spans:     spans,
		Processes: processes,
	}
}
