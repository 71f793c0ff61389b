// Package observability provides a metrics extension for the demurrage
// ledger that records event counts and amounts through a MetricFactory.
package observability

import (
	"context"
	"errors"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/journal"
	"github.com/xraph/demurrage/plugin"
	"github.com/xraph/demurrage/schedule"
	"github.com/xraph/demurrage/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin            = (*MetricsExtension)(nil)
	_ plugin.OnInit            = (*MetricsExtension)(nil)
	_ plugin.OnMinted          = (*MetricsExtension)(nil)
	_ plugin.OnTransferred     = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawn       = (*MetricsExtension)(nil)
	_ plugin.OnRateUpdated     = (*MetricsExtension)(nil)
	_ plugin.OnDecayRealized   = (*MetricsExtension)(nil)
	_ plugin.OnOperationFailed = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// Gauge interface for metric gauges.
type Gauge interface {
	Set(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
	Gauge(name string) Gauge
}

// MetricsExtension records ledger metrics. Amounts are reported in whole
// tokens as floats, so they are approximate.
type MetricsExtension struct {
	factory MetricFactory

	// Token metrics
	Minted         Counter
	Transferred    Counter
	Withdrawn      Counter
	MintAmount     Histogram
	TransferAmount Histogram
	WithdrawAmount Histogram
	FeesCollected  Counter

	// Demurrage metrics
	RateUpdated   Counter
	PendingRate   Gauge
	DecayRealized Counter

	// Error metrics
	Failed           Counter
	CollateralErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Token metrics
		Minted:         factory.Counter("demurrage.minted"),
		Transferred:    factory.Counter("demurrage.transferred"),
		Withdrawn:      factory.Counter("demurrage.withdrawn"),
		MintAmount:     factory.Histogram("demurrage.mint.amount_tokens"),
		TransferAmount: factory.Histogram("demurrage.transfer.amount_tokens"),
		WithdrawAmount: factory.Histogram("demurrage.withdraw.amount_tokens"),
		FeesCollected:  factory.Counter("demurrage.fees.collected_tokens"),

		// Demurrage metrics
		RateUpdated:   factory.Counter("demurrage.rate.updated"),
		PendingRate:   factory.Gauge("demurrage.rate.pending"),
		DecayRealized: factory.Counter("demurrage.decay.realized_tokens"),

		// Error metrics
		Failed:           factory.Counter("demurrage.failed"),
		CollateralErrors: factory.Counter("demurrage.collateral.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Token hooks
// ──────────────────────────────────────────────────

// OnMinted implements plugin.OnMinted.
func (m *MetricsExtension) OnMinted(_ context.Context, e *journal.Entry) error {
	m.Minted.Inc()
	m.MintAmount.Observe(tokens(e.Amount))
	return nil
}

// OnTransferred implements plugin.OnTransferred.
func (m *MetricsExtension) OnTransferred(_ context.Context, e *journal.Entry) error {
	m.Transferred.Inc()
	m.TransferAmount.Observe(tokens(e.Amount))
	m.FeesCollected.Add(tokens(e.Fee))
	return nil
}

// OnWithdrawn implements plugin.OnWithdrawn.
func (m *MetricsExtension) OnWithdrawn(_ context.Context, e *journal.Entry) error {
	m.Withdrawn.Inc()
	m.WithdrawAmount.Observe(tokens(e.Amount))
	m.FeesCollected.Add(tokens(e.Fee))
	return nil
}

// OnDecayRealized implements plugin.OnDecayRealized.
func (m *MetricsExtension) OnDecayRealized(_ context.Context, _ string, decayed types.Amount) error {
	m.DecayRealized.Add(tokens(decayed))
	return nil
}

// ──────────────────────────────────────────────────
// Demurrage hooks
// ──────────────────────────────────────────────────

// OnRateUpdated implements plugin.OnRateUpdated.
func (m *MetricsExtension) OnRateUpdated(_ context.Context, c *schedule.Checkpoint) error {
	m.RateUpdated.Inc()
	m.PendingRate.Set(c.Rate.Decimal().InexactFloat64())
	return nil
}

// OnOperationFailed implements plugin.OnOperationFailed.
func (m *MetricsExtension) OnOperationFailed(_ context.Context, _ string, err error) error {
	m.Failed.Inc()
	if errors.Is(err, demurrage.ErrCollateralTransferFailed) {
		m.CollateralErrors.Inc()
	}
	return nil
}

func tokens(a types.Amount) float64 {
	return a.Decimal().Shift(-types.Decimals).InexactFloat64()
}
