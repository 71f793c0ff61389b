package demurrage_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/clock/clocktest"
	collateralmem "github.com/xraph/demurrage/collateral/memory"
	"github.com/xraph/demurrage/store/memory"
)

// TestDocumentationExamples verifies that the examples in the package
// documentation compile and behave as described.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()
		token := collateralmem.New("EURC")
		asset := token.Caller(demurrage.DefaultVault)

		l := demurrage.New(memory.New(), asset,
			demurrage.WithLogger(slog.New(slog.DiscardHandler)),
			demurrage.WithOwner("treasury"),
		)
		if err := l.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer l.Stop() //nolint:errcheck // test cleanup

		token.Mint("leen", demurrage.Tokens(200))
		if err := token.Caller("leen").Approve(ctx, demurrage.DefaultVault, demurrage.Tokens(200)); err != nil {
			t.Fatal(err)
		}
		if err := l.Mint(ctx, "leen", demurrage.Tokens(200)); err != nil {
			t.Fatal(err)
		}

		b, err := l.BalanceOf(ctx, "leen")
		if err != nil {
			t.Fatal(err)
		}
		if b.WholeTokens() != 200 {
			t.Errorf("balance = %s, want 200", b.TokenString())
		}
	})

	t.Run("DecayExample", func(t *testing.T) {
		f := demurrage.CompoundFactor(demurrage.Percent(1), 6)
		got := demurrage.Tokens(1000).MulRate(f).TokenString()
		if got != "941.48" {
			t.Errorf("1000 after six periods = %s, want 941.48", got)
		}
	})

	t.Run("FeeExample", func(t *testing.T) {
		ctx := context.Background()
		clk := clocktest.NewManual(time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC))
		token := collateralmem.New("EURC")
		l := demurrage.New(memory.New(), token.Caller(demurrage.DefaultVault),
			demurrage.WithLogger(slog.New(slog.DiscardHandler)),
			demurrage.WithClock(clk),
		)
		if err := l.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer l.Stop() //nolint:errcheck // test cleanup

		token.Mint("leen", demurrage.Tokens(200))
		_ = token.Caller("leen").Approve(ctx, demurrage.DefaultVault, demurrage.Tokens(200))
		if err := l.Mint(ctx, "leen", demurrage.Tokens(200)); err != nil {
			t.Fatal(err)
		}
		if err := l.Transfer(ctx, "leen", "ana", demurrage.Tokens(100)); err != nil {
			t.Fatal(err)
		}

		sent, _ := l.BalanceOf(ctx, "leen")
		got, _ := l.BalanceOf(ctx, "ana")
		if sent.WholeTokens() != 99 || got.WholeTokens() != 100 {
			t.Errorf("sender %s recipient %s, want 99 and 100", sent.TokenString(), got.TokenString())
		}
	})

	t.Run("RateParsing", func(t *testing.T) {
		r, err := demurrage.ParseRate("0.025")
		if err != nil {
			t.Fatal(err)
		}
		if r.String() != "0.025" {
			t.Errorf("rate = %s", r)
		}
		if _, err := demurrage.ParseRate("1.01"); err == nil {
			t.Error("rate above one accepted")
		}
	})
}
