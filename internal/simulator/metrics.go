package simulator

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the simulator's instruments: snapshot pushes, the live
// subscriber count, and administrative writes.
type Metrics struct {
	snapshots   metric.Int64Counter
	subscribers metric.Int64UpDownCounter
	adminWrites metric.Int64Counter
}

// NewMetrics registers the simulator's instruments on the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter("freshear.devserver")

	snapshots, err := meter.Int64Counter("freshear_snapshots_pushed_total",
		metric.WithDescription("Collection snapshots pushed to subscribers"))
	if err != nil {
		return nil, errors.Wrap(err, "snapshots counter")
	}

	subscribers, err := meter.Int64UpDownCounter("freshear_subscribers",
		metric.WithDescription("Currently connected snapshot subscribers"))
	if err != nil {
		return nil, errors.Wrap(err, "subscribers gauge")
	}

	adminWrites, err := meter.Int64Counter("freshear_admin_writes_total",
		metric.WithDescription("Administrative write operations"))
	if err != nil {
		return nil, errors.Wrap(err, "admin writes counter")
	}

	return &Metrics{
		snapshots:   snapshots,
		subscribers: subscribers,
		adminWrites: adminWrites,
	}, nil
}

func (m *Metrics) SnapshotPushed() {
	if m != nil && m.snapshots != nil {
		m.snapshots.Add(context.Background(), 1)
	}
}

func (m *Metrics) SubscriberJoined() {
	if m != nil && m.subscribers != nil {
		m.subscribers.Add(context.Background(), 1)
	}
}

func (m *Metrics) SubscriberGone() {
	if m != nil && m.subscribers != nil {
		m.subscribers.Add(context.Background(), -1)
	}
}

func (m *Metrics) AdminWrite() {
	if m != nil && m.adminWrites != nil {
		m.adminWrites.Add(context.Background(), 1)
	}
}
