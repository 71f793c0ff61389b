// Package schedule keeps the demurrage rate history.
//
// A Schedule is a genesis rate plus an append-only list of checkpoints, each
// taking effect at a future instant. Elapsed time is measured in whole
// periods counted on the Unix epoch grid, so two realizations that straddle
// the same period boundary always agree on how many periods passed.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xraph/demurrage/id"
	"github.com/xraph/demurrage/types"
)

// DefaultPeriodLength is one 31-day month.
const DefaultPeriodLength = 31 * 24 * time.Hour

// Checkpoint errors.
var (
	ErrInvalidCheckpoint = errors.New("demurrage: invalid rate checkpoint")
	ErrPendingCheckpoint = fmt.Errorf("%w: an earlier checkpoint is not yet effective", ErrInvalidCheckpoint)
)

// Checkpoint is a rate change effective from EffectiveAt onward.
// Checkpoints are immutable once registered.
type Checkpoint struct {
	ID          id.CheckpointID `json:"id"`
	Rate        types.Rate      `json:"rate"`
	EffectiveAt time.Time       `json:"effective_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Segment is a run of whole periods that decayed at a single rate.
type Segment struct {
	Rate    types.Rate `json:"rate"`
	Periods int64      `json:"periods"`
}

// Schedule answers which rate applied when. It is safe for concurrent use.
type Schedule struct {
	mu          sync.RWMutex
	genesis     types.Rate
	period      time.Duration
	checkpoints []Checkpoint
}

// New creates a schedule with no checkpoints.
func New(genesis types.Rate, period time.Duration) (*Schedule, error) {
	if !genesis.Valid() {
		return nil, fmt.Errorf("schedule: genesis rate %s outside [0, 1]", genesis)
	}
	if period <= 0 {
		return nil, fmt.Errorf("schedule: period length must be positive, got %s", period)
	}
	return &Schedule{genesis: genesis, period: period}, nil
}

// Load rebuilds a schedule from persisted checkpoints, which must already be
// in strictly increasing EffectiveAt order.
func Load(genesis types.Rate, period time.Duration, checkpoints []*Checkpoint) (*Schedule, error) {
	s, err := New(genesis, period)
	if err != nil {
		return nil, err
	}
	for i, c := range checkpoints {
		if !c.Rate.Valid() {
			return nil, fmt.Errorf("schedule: checkpoint %s has rate %s outside [0, 1]", c.ID, c.Rate)
		}
		if i > 0 && !c.EffectiveAt.After(checkpoints[i-1].EffectiveAt) {
			return nil, fmt.Errorf("schedule: checkpoint %s is out of order", c.ID)
		}
		s.checkpoints = append(s.checkpoints, *c)
	}
	return s, nil
}

// Genesis returns the rate in force before any checkpoint.
func (s *Schedule) Genesis() types.Rate { return s.genesis }

// PeriodLength returns the length of one decay period.
func (s *Schedule) PeriodLength() time.Duration { return s.period }

// PeriodIndex returns floor(t / PeriodLength) on the Unix epoch grid.
func (s *Schedule) PeriodIndex(t time.Time) int64 {
	return floorDiv(t.UnixNano(), s.period.Nanoseconds())
}

// Checkpoints returns a copy of the registered checkpoints in order.
func (s *Schedule) Checkpoints() []Checkpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Checkpoint, len(s.checkpoints))
	copy(out, s.checkpoints)
	return out
}

// ActiveRateAt returns the rate of the latest checkpoint effective at or
// before t, or the genesis rate.
func (s *Schedule) ActiveRateAt(t time.Time) types.Rate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeRateAt(t)
}

func (s *Schedule) activeRateAt(t time.Time) types.Rate {
	i := sort.Search(len(s.checkpoints), func(i int) bool {
		return s.checkpoints[i].EffectiveAt.After(t)
	})
	if i == 0 {
		return s.genesis
	}
	return s.checkpoints[i-1].Rate
}

// Validate reports whether a checkpoint at effectiveAt may be registered
// at now. A checkpoint must lie strictly in the future and strictly after
// the last registered one, and no earlier checkpoint may still be pending.
func (s *Schedule) Validate(rate types.Rate, effectiveAt, now time.Time) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validate(rate, effectiveAt, now)
}

func (s *Schedule) validate(rate types.Rate, effectiveAt, now time.Time) error {
	if !rate.Valid() {
		return fmt.Errorf("%w: rate %s outside [0, 1]", ErrInvalidCheckpoint, rate)
	}
	if !effectiveAt.After(now) {
		return fmt.Errorf("%w: effective at %s is not after %s", ErrInvalidCheckpoint, effectiveAt.Format(time.RFC3339), now.Format(time.RFC3339))
	}
	if n := len(s.checkpoints); n > 0 {
		last := s.checkpoints[n-1]
		if last.EffectiveAt.After(now) {
			return fmt.Errorf("%w (%s at %s)", ErrPendingCheckpoint, last.Rate, last.EffectiveAt.Format(time.RFC3339))
		}
		if !effectiveAt.After(last.EffectiveAt) {
			return fmt.Errorf("%w: effective at %s is not after the last checkpoint", ErrInvalidCheckpoint, effectiveAt.Format(time.RFC3339))
		}
	}
	return nil
}

// Add validates c against now and appends it.
func (s *Schedule) Add(c Checkpoint, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validate(c.Rate, c.EffectiveAt, now); err != nil {
		return err
	}
	s.checkpoints = append(s.checkpoints, c)
	return nil
}

// SegmentsBetween splits (t0, t1] at every checkpoint strictly inside it and
// counts the whole periods in each piece. Pieces with no period boundary
// are omitted. It returns nil when t1 is not after t0.
func (s *Schedule) SegmentsBetween(t0, t1 time.Time) []Segment {
	if !t1.After(t0) {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var segments []Segment
	rate := s.activeRateAt(t0)
	from := t0

	start := sort.Search(len(s.checkpoints), func(i int) bool {
		return s.checkpoints[i].EffectiveAt.After(t0)
	})
	for _, c := range s.checkpoints[start:] {
		if !c.EffectiveAt.Before(t1) {
			break
		}
		if n := s.PeriodIndex(c.EffectiveAt) - s.PeriodIndex(from); n > 0 {
			segments = append(segments, Segment{Rate: rate, Periods: n})
		}
		rate = c.Rate
		from = c.EffectiveAt
	}
	if n := s.PeriodIndex(t1) - s.PeriodIndex(from); n > 0 {
		segments = append(segments, Segment{Rate: rate, Periods: n})
	}
	return segments
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
