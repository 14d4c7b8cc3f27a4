package diagnosis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// brokenMeter refuses every counter registration.
type brokenMeter struct {
	noop.Meter
}

func (brokenMeter) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return nil, errors.New("instrument rejected")
}

func TestNewMetrics_ReportsRegistrationErrors(t *testing.T) {
	var (
		mu       sync.Mutex
		reported []error
	)
	prev := otel.GetErrorHandler()
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, err)
	}))
	t.Cleanup(func() { otel.SetErrorHandler(prev) })

	m := newMetrics(brokenMeter{})

	mu.Lock()
	n := len(reported)
	mu.Unlock()
	if n != 3 {
		t.Fatalf("expected one reported error per counter, got %d", n)
	}

	ctx := context.Background()
	m.recordCreated(ctx, 1)
	m.recordExcluded(ctx, "age")
	m.recordFault(ctx)
}
