package tracing

import (
	"fmt"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var GlobalTracer = otel.Tracer("fitrack-backend")

// EndSpanWithErrCheck records the error on the span (if any) and ends it
func EndSpanWithErrCheck(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// HoneycombSetup uses the honeycomb distro to set up the OpenTelemetry SDK.
// When disabled, a no-op shutdown function is returned.
func HoneycombSetup(enabled bool, serviceName string) (shutdown func(), err error) {
	if !enabled {
		return func() {}, nil
	}

	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(serviceName),
	)
	if err != nil {
		return nil, fmt.Errorf("configure opentelemetry sdk: %w", err)
	}

	return otelShutdown, nil
}
