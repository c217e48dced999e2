package receiver

import (
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
)

func traceID(b byte) []byte {
	id := make([]byte, 16)
	id[15] = b
	return id
}

func spanID(b byte) []byte {
	id := make([]byte, 8)
	id[7] = b
	return id
}

func strAttr(key, value string) *commonpb.KeyValue {
	return &commonpb.KeyValue{Key: key, Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: value}}}
}

func intAttr(key string, value int64) *commonpb.KeyValue {
	return &commonpb.KeyValue{Key: key, Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: value}}}
}

// exportRequest builds a request with one resource for service holding spans.
func exportRequest(service string, spans ...*tracepb.Span) *coltracepb.ExportTraceServiceRequest {
	return &coltracepb.ExportTraceServiceRequest{
		ResourceSpans: []*tracepb.ResourceSpans{{
			Resource: &resourcepb.Resource{Attributes: []*commonpb.KeyValue{
				strAttr("service.name", service),
				strAttr("service.version", "1.0.0"),
			}},
			ScopeSpans: []*tracepb.ScopeSpans{{
				Scope: &commonpb.InstrumentationScope{Name: service},
				Spans: spans,
			}},
		}},
	}
}

// pipelineSpans returns a root span and one child in trace tid.
func pipelineSpans(tid byte, start uint64) []*tracepb.Span {
	return []*tracepb.Span{
		{
			TraceId:           traceID(tid),
			SpanId:            spanID(1),
			Name:              "ml_pipeline",
			StartTimeUnixNano: start,
			EndTimeUnixNano:   start + 5_000_000,
			Attributes:        []*commonpb.KeyValue{strAttr("pipeline.type", "supervised_learning")},
		},
		{
			TraceId:           traceID(tid),
			SpanId:            spanID(2),
			ParentSpanId:      spanID(1),
			Name:              "data_loading",
			StartTimeUnixNano: start + 1_000,
			EndTimeUnixNano:   start + 2_001_000,
			Attributes:        []*commonpb.KeyValue{intAttr("data.rows", 500)},
		},
	}
}
