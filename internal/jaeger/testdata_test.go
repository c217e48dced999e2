package jaeger

func sampleTrace() Trace {
	ref := func(id string) []Reference {
		return []Reference{{RefType: RefChildOf, TraceID: "abc", SpanID: id}}
	}
	return Trace{
		TraceID: "abc",
		Spans: []Span{
			{TraceID: "abc", SpanID: "s2", OperationName: "data_preprocessing", References: ref("root"), StartTime: 200, Duration: 50, ProcessID: "p1"},
			{TraceID: "abc", SpanID: "root", OperationName: "ml_pipeline", StartTime: 100, Duration: 1000, ProcessID: "p1",
				Tags: []KeyValue{{Key: "pipeline.type", Type: TypeString, Value: "supervised_learning"}}},
			{TraceID: "abc", SpanID: "s1", OperationName: "data_loading", References: ref("root"), StartTime: 110, Duration: 80, ProcessID: "p1",
				Tags: []KeyValue{{Key: "data.rows", Type: TypeInt64, Value: float64(500)}, {Key: "otel.scope.name", Type: TypeString, Value: "x"}}},
			{TraceID: "abc", SpanID: "orphan", OperationName: "late", References: ref("missing"), StartTime: 50, Duration: 1, ProcessID: "p2"},
		},
		Processes: map[string]Process{
			"p1": {ServiceName: "ml-observability-demo"},
			"p2": {ServiceName: "other"},
		},
	}
}
