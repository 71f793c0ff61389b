package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/id"
	"github.com/xraph/demurrage/journal"
	"github.com/xraph/demurrage/schedule"
	"github.com/xraph/demurrage/store/sqlite"
	"github.com/xraph/demurrage/types"
)

var t0 = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (context.Context, *sqlite.Store) {
	t.Helper()
	ctx := context.Background()

	sdb := sqlitedriver.New()
	require.NoError(t, sdb.Open(ctx, filepath.Join(t.TempDir(), "demurrage.db")))
	db, err := grove.Open(sdb)
	require.NoError(t, err)

	s := sqlite.New(db)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Ping(ctx))
	return ctx, s
}

func TestAccountsRoundTrip(t *testing.T) {
	ctx, s := newStore(t)

	_, err := s.GetAccount(ctx, "leen")
	assert.ErrorIs(t, err, demurrage.ErrAccountNotFound)

	// 200 tokens and one base unit does not fit in an int64.
	leen := account.New("leen", t0)
	leen.RawBalance = types.Tokens(200).Add(types.Units(1))
	leen.LastUpdated = t0.Add(123456789 * time.Nanosecond)
	julien := account.New("julien", t0)
	require.NoError(t, s.SaveAccounts(ctx, leen, julien))

	got, err := s.GetAccount(ctx, "leen")
	require.NoError(t, err)
	assert.Equal(t, leen.ID.String(), got.ID.String())
	assert.Equal(t, "200000000000000000001", got.RawBalance.String())
	assert.True(t, got.LastUpdated.Equal(leen.LastUpdated), "last_updated = %s", got.LastUpdated)
	assert.True(t, got.CreatedAt.Equal(t0))

	// A second save of the same holder updates in place.
	later := t0.Add(schedule.DefaultPeriodLength)
	again := account.New("leen", later)
	again.RawBalance = types.Tokens(5)
	require.NoError(t, s.SaveAccounts(ctx, again))

	got, err = s.GetAccount(ctx, "leen")
	require.NoError(t, err)
	assert.Equal(t, leen.ID.String(), got.ID.String())
	assert.True(t, got.RawBalance.Equal(types.Tokens(5)))
	assert.True(t, got.LastUpdated.Equal(later))
	assert.True(t, got.CreatedAt.Equal(t0))

	listed, err := s.ListAccounts(ctx, account.ListOpts{})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "julien", listed[0].Holder)
	assert.Equal(t, "leen", listed[1].Holder)

	page, err := s.ListAccounts(ctx, account.ListOpts{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "leen", page[0].Holder)
}

func TestCheckpointsRoundTrip(t *testing.T) {
	ctx, s := newStore(t)

	second := &schedule.Checkpoint{ID: id.NewCheckpointID(), Rate: types.Percent(10), EffectiveAt: t0.Add(48 * time.Hour), CreatedAt: t0}
	first := &schedule.Checkpoint{ID: id.NewCheckpointID(), Rate: types.Percent(2), EffectiveAt: t0.Add(24 * time.Hour), CreatedAt: t0}
	require.NoError(t, s.AppendCheckpoint(ctx, second))
	require.NoError(t, s.AppendCheckpoint(ctx, first))

	dup := &schedule.Checkpoint{ID: id.NewCheckpointID(), Rate: types.Percent(5), EffectiveAt: first.EffectiveAt, CreatedAt: t0}
	assert.ErrorIs(t, s.AppendCheckpoint(ctx, dup), demurrage.ErrCheckpointExists)

	got, err := s.ListCheckpoints(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID.String(), got[0].ID.String())
	assert.Equal(t, types.Percent(2), got[0].Rate)
	assert.True(t, got[0].EffectiveAt.Equal(first.EffectiveAt))
	assert.Equal(t, second.ID.String(), got[1].ID.String())

	sched, err := schedule.Load(types.Percent(1), schedule.DefaultPeriodLength, got)
	require.NoError(t, err)
	assert.Equal(t, types.Percent(10), sched.ActiveRateAt(second.EffectiveAt))
}

func TestJournalRoundTrip(t *testing.T) {
	ctx, s := newStore(t)

	minted := journal.Minted("leen", types.Tokens(200), t0)
	sent := journal.Transferred("leen", "julien", types.Tokens(100), types.Tokens(1), t0.Add(time.Hour))
	rate := journal.RateUpdated("owner", types.Percent(2), t0.Add(72*time.Hour), t0.Add(2*time.Hour))
	for _, e := range []*journal.Entry{minted, sent, rate} {
		require.NoError(t, s.AppendEntry(ctx, e))
	}
	assert.ErrorIs(t, s.AppendEntry(ctx, minted), demurrage.ErrEntryAlreadyExists)

	got, err := s.GetEntry(ctx, rate.ID)
	require.NoError(t, err)
	assert.Equal(t, journal.KindRateUpdated, got.Kind)
	assert.True(t, got.EffectiveAt.Equal(rate.EffectiveAt))
	assert.True(t, got.Amount.IsZero())

	got, err = s.GetEntry(ctx, sent.ID)
	require.NoError(t, err)
	assert.True(t, got.EffectiveAt.IsZero())
	assert.True(t, got.Fee.Equal(types.Tokens(1)))

	_, err = s.GetEntry(ctx, id.NewEntryID())
	assert.ErrorIs(t, err, demurrage.ErrEntryNotFound)

	tests := []struct {
		name string
		opts journal.QueryOpts
		want []id.EntryID
	}{
		{"all in order", journal.QueryOpts{}, []id.EntryID{minted.ID, sent.ID, rate.ID}},
		{"holder as sender", journal.QueryOpts{Holder: "leen"}, []id.EntryID{minted.ID, sent.ID}},
		{"holder as recipient", journal.QueryOpts{Holder: "julien"}, []id.EntryID{sent.ID}},
		{"kind", journal.QueryOpts{Kind: journal.KindRateUpdated}, []id.EntryID{rate.ID}},
		{"since", journal.QueryOpts{Since: t0.Add(time.Hour)}, []id.EntryID{sent.ID, rate.ID}},
		{"page", journal.QueryOpts{Limit: 1, Offset: 1}, []id.EntryID{sent.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := s.QueryEntries(ctx, tt.opts)
			require.NoError(t, err)
			want := make([]string, len(tt.want))
			for i, entryID := range tt.want {
				want[i] = entryID.String()
			}
			got := make([]string, len(entries))
			for i, e := range entries {
				got[i] = e.ID.String()
			}
			assert.Equal(t, want, got)
		})
	}
}
