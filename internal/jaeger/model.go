package jaeger

import "sort"

// Tag value types as reported by the query API.
const (
	TypeString  = "string"
	TypeBool    = "bool"
	TypeInt64   = "int64"
	TypeFloat64 = "float64"
	TypeBinary  = "binary"
)

// RefChildOf marks a span's parent reference.
const RefChildOf = "CHILD_OF"

// Response is the envelope around every query API payload.
type Response[T any] struct {
	Data   T               `json:"data"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
	Errors []ResponseError `json:"errors"`
}

// ResponseError is one entry of Response.Errors.
type ResponseError struct {
	Code    int    `json:"code"`
	Msg     string `json:"msg"`
	TraceID string `json:"traceID,omitempty"`
}

// Trace is a trace with its spans and the processes that emitted them.
type Trace struct {
	TraceID   string             `json:"traceID"`
	Spans     []Span             `json:"spans"`
	Processes map[string]Process `json:"processes"`
	Warnings  []string           `json:"warnings"`
}

// Span is one span of a Trace. StartTime and Duration are microseconds.
type Span struct {
	TraceID       string      `json:"traceID"`
	SpanID        string      `json:"spanID"`
	OperationName string      `json:"operationName"`
	References    []Reference `json:"references"`
	StartTime     int64       `json:"startTime"`
	Duration      int64       `json:"duration"`
	Tags          []KeyValue  `json:"tags"`
	Logs          []Log       `json:"logs"`
	ProcessID     string      `json:"processID"`
	Warnings      []string    `json:"warnings"`
}

// Reference links a span to another span.
type Reference struct {
	RefType string `json:"refType"`
	TraceID string `json:"traceID"`
	SpanID  string `json:"spanID"`
}

// KeyValue is a typed tag.
type KeyValue struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// Log is a timestamped set of fields, the query API's form of span events.
type Log struct {
	Timestamp int64      `json:"timestamp"`
	Fields    []KeyValue `json:"fields"`
}

// Process describes the emitter of a group of spans.
type Process struct {
	ServiceName string     `json:"serviceName"`
	Tags        []KeyValue `json:"tags"`
}

// ParentSpanID returns the CHILD_OF reference, or "" for a root span.
func (s Span) ParentSpanID() string {
	for _, ref := range s.References {
		if ref.RefType == RefChildOf {
			return ref.SpanID
		}
	}
	return ""
}

// Tag looks up a tag by key.
func (s Span) Tag(key string) (KeyValue, bool) {
	for _, kv := range s.Tags {
		if kv.Key == key {
			return kv, true
		}
	}
	return KeyValue{}, false
}

// ServiceName returns the service that emitted span.
func (t Trace) ServiceName(span Span) string {
	return t.Processes[span.ProcessID].ServiceName
}

// Services returns the distinct service names in t, sorted.
func (t Trace) Services() []string {
	seen := make(map[string]struct{}, len(t.Processes))
	for _, p := range t.Processes {
		seen[p.ServiceName] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StartTime returns the earliest span start, in microseconds.
func (t Trace) StartTime() int64 {
	var start int64
	for i, s := range t.Spans {
		if i == 0 || s.StartTime < start {
			start = s.StartTime
		}
	}
	return start
}

// Find returns the spans named operation.
func (t Trace) Find(operation string) []Span {
	var out []Span
	for _, s := range t.Spans {
		if s.OperationName == operation {
			out = append(out, s)
		}
	}
	return out
}
