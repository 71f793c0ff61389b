package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/decay"
	"github.com/xraph/demurrage/id"
	"github.com/xraph/demurrage/journal"
	"github.com/xraph/demurrage/types"
)

type accountResponse struct {
	Holder      string       `json:"holder"`
	Balance     types.Amount `json:"balance"`
	RawBalance  types.Amount `json:"raw_balance"`
	LastUpdated *time.Time   `json:"last_updated,omitempty"`
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	holder := chi.URLParam(r, "holder")

	balance, err := s.ledger.BalanceOf(r.Context(), holder)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := accountResponse{Holder: holder, Balance: balance, RawBalance: types.Zero}

	a, err := s.ledger.Account(r.Context(), holder)
	switch {
	case demurrage.IsNotFound(err):
	case err != nil:
		s.writeError(w, r, err)
		return
	default:
		resp.RawBalance = a.RawBalance
		resp.LastUpdated = &a.LastUpdated
	}
	writeJSON(w, http.StatusOK, resp)
}

type amountRequest struct {
	Recipient string       `json:"recipient,omitempty"`
	Amount    types.Amount `json:"amount"`
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	caller := r.Header.Get(CallerHeader)
	if err := s.ledger.Mint(r.Context(), caller, req.Amount); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondBalance(w, r, http.StatusCreated, caller)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Recipient == "" {
		s.writeError(w, r, demurrage.ValidationError{Field: "recipient", Message: "required"})
		return
	}
	caller := r.Header.Get(CallerHeader)
	if err := s.ledger.Transfer(r.Context(), caller, req.Recipient, req.Amount); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondBalance(w, r, http.StatusOK, caller)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	caller := r.Header.Get(CallerHeader)
	if err := s.ledger.Withdraw(r.Context(), caller, req.Amount); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondBalance(w, r, http.StatusOK, caller)
}

func (s *Server) respondBalance(w http.ResponseWriter, r *http.Request, status int, holder string) {
	balance, err := s.ledger.BalanceOf(r.Context(), holder)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, accountResponse{Holder: holder, Balance: balance, RawBalance: balance})
}

func (s *Server) handleSupply(w http.ResponseWriter, r *http.Request) {
	supply, err := s.ledger.TotalSupply(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	reserves, err := s.ledger.Reserves(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_supply":  supply,
		"reserves":      reserves,
		"vault":         s.ledger.Vault(),
		"fee_collector": s.ledger.FeeCollector(),
	})
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	active, err := s.ledger.ActiveRate()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	checkpoints, err := s.ledger.Checkpoints()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active_rate":    active.String(),
		"transfer_fee":   s.ledger.TransferFeeRate().String(),
		"withdrawal_fee": s.ledger.WithdrawalFeeRate().String(),
		"period":         s.ledger.PeriodLength().String(),
		"checkpoints":    checkpoints,
	})
}

func (s *Server) handleUpdateRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rate        string    `json:"rate"`
		EffectiveAt time.Time `json:"effective_at"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rate, err := types.ParseRate(req.Rate)
	if err != nil {
		s.writeError(w, r, demurrage.ValidationError{Field: "rate", Message: err.Error()})
		return
	}

	c, err := s.ledger.UpdateDemurrageRate(r.Context(), r.Header.Get(CallerHeader), rate, req.EffectiveAt)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := journal.QueryOpts{
		Holder: q.Get("holder"),
		Kind:   journal.Kind(q.Get("kind")),
	}

	var err error
	if opts.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Offset, err = intParam(q.Get("offset"), "offset"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if since := q.Get("since"); since != "" {
		if opts.Since, err = time.Parse(time.RFC3339, since); err != nil {
			s.writeError(w, r, demurrage.ValidationError{Field: "since", Message: "must be RFC 3339"})
			return
		}
	}

	entries, err := s.ledger.History(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := id.ParseEntryID(chi.URLParam(r, "entryID"))
	if err != nil {
		s.writeError(w, r, demurrage.ValidationError{Field: "entry_id", Message: err.Error()})
		return
	}
	e, err := s.ledger.Entry(r.Context(), entryID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleFactor(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rate, err := types.ParseRate(q.Get("rate"))
	if err != nil {
		s.writeError(w, r, demurrage.ValidationError{Field: "rate", Message: err.Error()})
		return
	}
	periods, err := strconv.ParseInt(q.Get("periods"), 10, 64)
	if err != nil || periods < 0 {
		s.writeError(w, r, demurrage.ValidationError{Field: "periods", Message: "must be a non-negative integer"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rate":    rate.String(),
		"periods": periods,
		"factor":  decay.CompoundFactor(rate, periods).String(),
	})
}

func intParam(v, field string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, demurrage.ValidationError{Field: field, Message: "must be a non-negative integer"}
	}
	return n, nil
}
