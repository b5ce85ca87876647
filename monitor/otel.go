package monitor

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/metric"
)

// OTel is a Sink which reports every scalar as an
// OpenTelemetry gauge.
//
// Gauges are created lazily, one per scalar name, and
// named Prefix+name.
type OTel struct {
	Meter  metric.Meter
	Prefix string

	mu     sync.Mutex
	gauges map[string]metric.Float64Gauge
}

// NewOTel creates a sink which reports to the meter.
func NewOTel(meter metric.Meter, prefix string) *OTel {
	return &OTel{Meter: meter, Prefix: prefix}
}

// PutScalar records the value on the scalar's gauge.
func (o *OTel) PutScalar(ctx context.Context, name string, value float64) error {
	gauge, err := o.gauge(name)
	if err != nil {
		return err
	}
	gauge.Record(ctx, value)
	return nil
}

func (o *OTel) gauge(name string) (metric.Float64Gauge, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if g, ok := o.gauges[name]; ok {
		return g, nil
	}
	g, err := o.Meter.Float64Gauge(o.Prefix + name)
	if err != nil {
		return nil, err
	}
	if o.gauges == nil {
		o.gauges = map[string]metric.Float64Gauge{}
	}
	o.gauges[name] = g
	return g, nil
}
