package api_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/api"
	"github.com/xraph/demurrage/clock/clocktest"
	collateralmem "github.com/xraph/demurrage/collateral/memory"
	"github.com/xraph/demurrage/store/memory"
	"github.com/xraph/demurrage/types"
)

var genesis = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

type testServer struct {
	*api.Server
	clk   *clocktest.Manual
	token *collateralmem.Token
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	clk := clocktest.NewManual(genesis)
	token := collateralmem.New("EURC")
	l := demurrage.New(memory.New(), token.Caller(demurrage.DefaultVault),
		demurrage.WithClock(clk),
		demurrage.WithOwner("owner"),
		demurrage.WithLogger(slog.New(slog.DiscardHandler)),
	)
	require.NoError(t, l.Start(context.Background()))

	srv := api.New(l, api.WithLogger(slog.New(slog.DiscardHandler)))
	return &testServer{Server: srv, clk: clk, token: token}
}

// fund gives holder collateral and approves the vault for it.
func (s *testServer) fund(t *testing.T, holder string, tokens int64) {
	t.Helper()
	s.token.Mint(holder, types.Tokens(tokens))
	require.NoError(t, s.token.Caller(holder).Approve(context.Background(), demurrage.DefaultVault, types.Tokens(tokens)))
}

func (s *testServer) do(t *testing.T, method, path, caller, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if caller != "" {
		req.Header.Set(api.CallerHeader, caller)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func amountBody(tokens int64) string {
	return `{"amount":"` + types.Tokens(tokens).String() + `"}`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestMintTransferWithdraw(t *testing.T) {
	s := newTestServer(t)
	s.fund(t, "leen", 200)

	w := s.do(t, http.MethodPost, "/mint", "leen", amountBody(200))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, types.Tokens(200).String(), decodeBody(t, w)["balance"])

	w = s.do(t, http.MethodPost, "/transfer", "leen",
		`{"recipient":"julien","amount":"`+types.Tokens(100).String()+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, types.Tokens(99).String(), decodeBody(t, w)["balance"])

	w = s.do(t, http.MethodPost, "/withdraw", "julien", amountBody(50))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	remaining, err := types.ParseTokens("49.5")
	require.NoError(t, err)
	assert.Equal(t, remaining.String(), decodeBody(t, w)["balance"])

	w = s.do(t, http.MethodGet, "/supply", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, types.Tokens(150).String(), body["reserves"])
	assert.Equal(t, types.Tokens(150).String(), body["total_supply"])

	w = s.do(t, http.MethodGet, "/journal?holder=julien", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "transferred", entries[0]["kind"])
	assert.Equal(t, "withdrawn", entries[1]["kind"])

	w = s.do(t, http.MethodGet, "/journal/"+entries[1]["id"].(string), "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestAccountDecays(t *testing.T) {
	s := newTestServer(t)
	s.fund(t, "julien", 200)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/mint", "julien", amountBody(200)).Code)

	s.clk.Advance(31 * 24 * time.Hour)
	w := s.do(t, http.MethodGet, "/accounts/julien", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, types.Tokens(198).String(), body["balance"])
	assert.Equal(t, types.Tokens(200).String(), body["raw_balance"])
}

func TestUnknownAccount(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/accounts/nobody", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", decodeBody(t, w)["balance"])
}

func TestRates(t *testing.T) {
	s := newTestServer(t)
	effective := genesis.Add(31 * 24 * time.Hour).Format(time.RFC3339)

	w := s.do(t, http.MethodPost, "/rates", "julien", `{"rate":"0.02","effective_at":"`+effective+`"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/rates", "owner", `{"rate":"0.02","effective_at":"`+effective+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/rates", "owner", `{"rate":"0.03","effective_at":"`+effective+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/rates", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "0.01", body["active_rate"])
	assert.Len(t, body["checkpoints"], 1)
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer(t)
	s.fund(t, "leen", 10)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/mint", "leen", amountBody(10)).Code)

	tests := []struct {
		name   string
		method string
		path   string
		caller string
		body   string
		want   int
	}{
		{"missing caller", http.MethodPost, "/mint", "", amountBody(1), http.StatusUnauthorized},
		{"bad json", http.MethodPost, "/mint", "leen", `{`, http.StatusBadRequest},
		{"fractional amount", http.MethodPost, "/mint", "leen", `{"amount":"1.5"}`, http.StatusBadRequest},
		{"zero amount", http.MethodPost, "/withdraw", "leen", `{"amount":"0"}`, http.StatusBadRequest},
		{"no approval", http.MethodPost, "/mint", "marc", amountBody(1), http.StatusPaymentRequired},
		{"overdraft", http.MethodPost, "/transfer", "leen", `{"recipient":"julien","amount":"` + types.Tokens(10).String() + `"}`, http.StatusConflict},
		{"missing recipient", http.MethodPost, "/transfer", "leen", amountBody(1), http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/journal?limit=-1", "", "", http.StatusBadRequest},
		{"bad entry id", http.MethodGet, "/journal/nope", "", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.caller, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestFactor(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/factor?rate=0.01&periods=6", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0.94148", decodeBody(t, w)["factor"])

	w = s.do(t, http.MethodGet, "/factor?rate=2&periods=1", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
