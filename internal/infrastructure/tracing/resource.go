package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/config"
)

// NewResource describes the emitting process. Empty optional fields are
// left out rather than exported as empty strings.
func NewResource(svc config.ServiceConfig) *resource.Resource {
	attrs := []attribute.KeyValue{semconv.ServiceName(svc.Name)}

	if svc.Namespace != "" {
		attrs = append(attrs, semconv.ServiceNamespace(svc.Namespace))
	}
	if svc.Version != "" {
		attrs = append(attrs, semconv.ServiceVersion(svc.Version))
	}
	if svc.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(svc.Environment))
	}

	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}
