package receiver

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/GriffinCanCode/observability-demo/internal/jaeger"
)

// UnknownService is used when a resource carries no service.name.
const UnknownService = "unknown_service"

// resourceService extracts service.name and the remaining resource
// attributes as process tags.
func resourceService(rs *tracepb.ResourceSpans) (string, []jaeger.KeyValue) {
	service := UnknownService
	var tags []jaeger.KeyValue

	for _, attr := range rs.GetResource().GetAttributes() {
		if attr.GetKey() == "service.name" {
			if name := attr.GetValue().GetStringValue(); name != "" {
				service = name
			}
			continue
		}
		tags = append(tags, keyValue(attr.GetKey(), attr.GetValue()))
	}
	return service, tags
}

// convertSpan maps an OTLP span to the query API model.
func convertSpan(span *tracepb.Span, scope *commonpb.InstrumentationScope, processID string) jaeger.Span {
	traceID := hex.EncodeToString(span.GetTraceId())
	out := jaeger.Span{
		TraceID:       traceID,
		SpanID:        hex.EncodeToString(span.GetSpanId()),
		OperationName: span.GetName(),
		References:    []jaeger.Reference{},
		StartTime:     int64(span.GetStartTimeUnixNano() / 1000),
		ProcessID:     processID,
		Logs:          []jaeger.Log{},
	}
	if end, start := span.GetEndTimeUnixNano(), span.GetStartTimeUnixNano(); end > start {
		out.Duration = int64((end - start) / 1000)
	}

	if parent := span.GetParentSpanId(); len(parent) > 0 {
		out.References = append(out.References, jaeger.Reference{
			RefType: jaeger.RefChildOf,
			TraceID: traceID,
			SpanID:  hex.EncodeToString(parent),
		})
	}

	tags := make([]jaeger.KeyValue, 0, len(span.GetAttributes())+4)
	for _, attr := range span.GetAttributes() {
		tags = append(tags, keyValue(attr.GetKey(), attr.GetValue()))
	}
	if name := scope.GetName(); name != "" {
		tags = append(tags, jaeger.KeyValue{Key: "otel.scope.name", Type: jaeger.TypeString, Value: name})
	}
	if kind := spanKind(span.GetKind()); kind != "" {
		tags = append(tags, jaeger.KeyValue{Key: "span.kind", Type: jaeger.TypeString, Value: kind})
	}
	if span.GetStatus().GetCode() == tracepb.Status_STATUS_CODE_ERROR {
		tags = append(tags,
			jaeger.KeyValue{Key: "error", Type: jaeger.TypeBool, Value: true},
			jaeger.KeyValue{Key: "otel.status_description", Type: jaeger.TypeString, Value: span.GetStatus().GetMessage()},
		)
	}
	out.Tags = tags

	for _, event := range span.GetEvents() {
		fields := []jaeger.KeyValue{{Key: "event", Type: jaeger.TypeString, Value: event.GetName()}}
		for _, attr := range event.GetAttributes() {
			fields = append(fields, keyValue(attr.GetKey(), attr.GetValue()))
		}
		out.Logs = append(out.Logs, jaeger.Log{
			Timestamp: int64(event.GetTimeUnixNano() / 1000),
			Fields:    fields,
		})
	}

	return out
}

func spanKind(kind tracepb.Span_SpanKind) string {
	switch kind {
	case tracepb.Span_SPAN_KIND_SERVER:
		return "server"
	case tracepb.Span_SPAN_KIND_CLIENT:
		return "client"
	case tracepb.Span_SPAN_KIND_PRODUCER:
		return "producer"
	case tracepb.Span_SPAN_KIND_CONSUMER:
		return "consumer"
	default:
		return ""
	}
}

func keyValue(key string, v *commonpb.AnyValue) jaeger.KeyValue {
	switch val := v.GetValue().(type) {
	case *commonpb.AnyValue_StringValue:
		return jaeger.KeyValue{Key: key, Type: jaeger.TypeString, Value: val.StringValue}
	case *commonpb.AnyValue_BoolValue:
		return jaeger.KeyValue{Key: key, Type: jaeger.TypeBool, Value: val.BoolValue}
	case *commonpb.AnyValue_IntValue:
		return jaeger.KeyValue{Key: key, Type: jaeger.TypeInt64, Value: val.IntValue}
	case *commonpb.AnyValue_DoubleValue:
		return jaeger.KeyValue{Key: key, Type: jaeger.TypeFloat64, Value: val.DoubleValue}
	case *commonpb.AnyValue_BytesValue:
		return jaeger.KeyValue{Key: key, Type: jaeger.TypeBinary, Value: base64.StdEncoding.EncodeToString(val.BytesValue)}
	case nil:
		return jaeger.KeyValue{Key: key, Type: jaeger.TypeString, Value: ""}
	default:
		// arrays and maps are flattened to their JSON form
		raw, err := protojson.Marshal(v)
		if err != nil {
			return jaeger.KeyValue{Key: key, Type: jaeger.TypeString, Value: v.String()}
		}
		return jaeger.KeyValue{Key: key, Type: jaeger.TypeString, Value: strings.TrimSpace(string(raw))}
	}
}
