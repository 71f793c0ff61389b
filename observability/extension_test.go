package observability_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/id"
	"github.com/xraph/demurrage/journal"
	"github.com/xraph/demurrage/observability"
	"github.com/xraph/demurrage/schedule"
	"github.com/xraph/demurrage/types"
)

type metric struct {
	mu     sync.Mutex
	total  float64
	values []float64
}

func (m *metric) Inc() { m.Add(1) }

func (m *metric) Add(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total += v
}

func (m *metric) Observe(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = append(m.values, v)
}

func (m *metric) Set(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = v
}

type factory struct {
	metrics map[string]*metric
}

func newFactory() *factory { return &factory{metrics: make(map[string]*metric)} }

func (f *factory) get(name string) *metric {
	if m, ok := f.metrics[name]; ok {
		return m
	}
	m := &metric{}
	f.metrics[name] = m
	return m
}

func (f *factory) Counter(name string) observability.Counter     { return f.get(name) }
func (f *factory) Histogram(name string) observability.Histogram { return f.get(name) }
func (f *factory) Gauge(name string) observability.Gauge         { return f.get(name) }

func TestMetricsExtension(t *testing.T) {
	ctx := context.Background()
	f := newFactory()
	m := observability.NewMetricsExtension(f)
	now := time.Now()

	_ = m.OnMinted(ctx, journal.Minted("leen", types.Tokens(200), now))
	_ = m.OnTransferred(ctx, journal.Transferred("leen", "julien", types.Tokens(100), types.Tokens(1), now))
	_ = m.OnWithdrawn(ctx, journal.Withdrawn("julien", types.Tokens(50), types.Tokens(1), now))
	_ = m.OnDecayRealized(ctx, "leen", types.Tokens(2))
	_ = m.OnRateUpdated(ctx, &schedule.Checkpoint{ID: id.NewCheckpointID(), Rate: types.Percent(2), EffectiveAt: now})
	_ = m.OnOperationFailed(ctx, "withdraw", fmt.Errorf("%w: vault empty", demurrage.ErrCollateralTransferFailed))
	_ = m.OnOperationFailed(ctx, "transfer", demurrage.ErrInsufficientBalance)

	assert.InDelta(t, 1, f.get("demurrage.minted").total, 0)
	assert.InDelta(t, 1, f.get("demurrage.transferred").total, 0)
	assert.InDelta(t, 1, f.get("demurrage.withdrawn").total, 0)
	assert.Equal(t, []float64{200}, f.get("demurrage.mint.amount_tokens").values)
	assert.InDelta(t, 2, f.get("demurrage.fees.collected_tokens").total, 1e-9)
	assert.InDelta(t, 2, f.get("demurrage.decay.realized_tokens").total, 1e-9)
	assert.InDelta(t, 0.02, f.get("demurrage.rate.pending").total, 1e-9)
	assert.InDelta(t, 2, f.get("demurrage.failed").total, 0)
	assert.InDelta(t, 1, f.get("demurrage.collateral.errors").total, 0)
}
