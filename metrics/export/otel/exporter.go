package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/triovision/erpauth"
	"github.com/triovision/erpauth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Instrument names.
const (
	FlowEventsName     = "erpauth.flow.events"
	LatencyBucketsName = "erpauth.request.latency.buckets"
	AuditDroppedName   = "erpauth.audit.dropped"
)

type metricsSource interface {
	MetricsSnapshot() erpauth.MetricsSnapshot
	AuditDropped() uint64
}

type flowPoint struct {
	id    erpauth.MetricID
	attrs metric.ObserveOption
}

// OTelExporter publishes client metrics as observable OTel instruments.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration

	events       metric.Int64ObservableCounter
	latency      metric.Int64ObservableGauge
	auditDropped metric.Int64ObservableCounter

	points  []flowPoint
	buckets [8]metric.ObserveOption
}

// NewOTelExporter registers instruments on meter that read from client.
func NewOTelExporter(meter metric.Meter, client *erpauth.Client) (*OTelExporter, error) {
	if client == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, client)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{
		source: source,
		points: make([]flowPoint, 0, len(internaldefs.CounterDefs)),
	}
	for _, def := range internaldefs.CounterDefs {
		set := attribute.NewSet(attribute.String("flow", def.Flow), attribute.String("outcome", def.Outcome))
		e.points = append(e.points, flowPoint{id: def.ID, attrs: metric.WithAttributeSet(set)})
	}
	for i, le := range internaldefs.HistogramBounds {
		e.buckets[i] = metric.WithAttributeSet(attribute.NewSet(attribute.String("le", le)))
	}

	var err error
	e.events, err = meter.Int64ObservableCounter(FlowEventsName,
		metric.WithDescription("Form outcomes by flow."))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", FlowEventsName, err)
	}
	e.latency, err = meter.Int64ObservableGauge(LatencyBucketsName,
		metric.WithDescription("Cumulative API round-trip latency bucket counts."),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", LatencyBucketsName, err)
	}
	e.auditDropped, err = meter.Int64ObservableCounter(AuditDroppedName,
		metric.WithDescription("Audit events dropped by a full dispatcher queue."))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", AuditDroppedName, err)
	}

	e.registration, err = meter.RegisterCallback(e.observe, e.events, e.latency, e.auditDropped)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, p := range e.points {
		o.ObserveInt64(e.events, int64(snapshot.Counters[p.id]), p.attrs)
	}

	raw := internaldefs.NormalizeBuckets(snapshot.Histograms[erpauth.MetricRequestLatency])
	cumulative := internaldefs.CumulativeBuckets(raw)
	for i, v := range cumulative {
		o.ObserveInt64(e.latency, int64(v), e.buckets[i])
	}

	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
