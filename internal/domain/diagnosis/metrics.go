package diagnosis

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/care360/care360/internal/domain/diagnosis"

type metrics struct {
	created  metric.Int64Counter
	excluded metric.Int64Counter
	faults   metric.Int64Counter
}

func newMetrics(meter metric.Meter) *metrics {
	return &metrics{
		created: counter(meter, "diagnosis_created_count",
			"Diagnoses persisted", "{diagnosis}"),
		excluded: counter(meter, "diagnosis_condition_excluded_count",
			"Scored conditions removed by the age or sex gate", "{condition}"),
		faults: counter(meter, "diagnosis_computation_fault_count",
			"Conditions skipped because their catalog data could not be scored", "{condition}"),
	}
}

// counter reports a failed registration to the OpenTelemetry error handler
// and falls back to a no-op instrument so recording never has to check.
func counter(meter metric.Meter, name, description, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		otel.Handle(fmt.Errorf("register %s: %w", name, err))
	}
	if c == nil {
		return noop.Int64Counter{}
	}
	return c
}

func defaultMetrics() *metrics {
	return newMetrics(otel.Meter(instrumentationName))
}

func (m *metrics) recordCreated(ctx context.Context, matched int) {
	m.created.Add(ctx, 1, metric.WithAttributes(attribute.Bool("matched", matched > 0)))
}

func (m *metrics) recordExcluded(ctx context.Context, reason string) {
	m.excluded.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *metrics) recordFault(ctx context.Context) {
	m.faults.Add(ctx, 1)
}
