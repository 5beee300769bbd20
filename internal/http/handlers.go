package http

import (
	"fmt"
	"net/http"

	"giaodich/internal/core"
	"giaodich/internal/log"
	"giaodich/internal/report"
)

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "transactions": s.service.Len()})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	window, today, err := s.windowAndToday(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	txs, err := s.service.Transactions(window, today)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionsResponse{
		Window:       window,
		Today:        today,
		Count:        len(txs),
		Transactions: newTransactionViews(txs),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	window, today, err := s.windowAndToday(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	rep, err := s.service.Report(window, today)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleCounters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Counters())
}

func (s *Server) handleRates(w http.ResponseWriter, _ *http.Request) {
	rates := s.service.Rates()
	out := make([]rateView, 0, len(rates))
	for _, rate := range rates {
		out = append(out, newRateView(rate))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGold(w http.ResponseWriter, r *http.Request) {
	var req goldRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	if !req.GoldType.set {
		writeFailure(w, r, fmt.Errorf("gold_type is required: %w", errBadRequest))
		return
	}
	goldType, err := core.ParseGoldType(req.GoldType.raw)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	date := req.date(s.today())
	s.record(w, r, req.ID, func(id int64) (core.Transaction, error) {
		return core.NewGoldTransaction(id, date, req.UnitPrice, req.Quantity, goldType)
	})
}

func (s *Server) handleCreateCurrency(w http.ResponseWriter, r *http.Request) {
	var req currencyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	if !req.CurrencyType.set {
		writeFailure(w, r, fmt.Errorf("currency_type is required: %w", errBadRequest))
		return
	}
	currency, err := core.ParseCurrencyType(req.CurrencyType.raw)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	rate, err := s.resolveRate(req, currency)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	date := req.date(s.today())
	s.record(w, r, req.ID, func(id int64) (core.Transaction, error) {
		return core.NewCurrencyTransaction(id, date, req.Quantity, currency, rate)
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	tx, err := s.service.Remove(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionView(tx))
}

// record stores the built transaction. Without a requested id the service
// allocates the next free one.
func (s *Server) record(w http.ResponseWriter, r *http.Request, requested *int64, build func(id int64) (core.Transaction, error)) {
	var tx core.Transaction
	var err error
	if requested != nil {
		if tx, err = build(*requested); err == nil {
			err = s.service.Record(r.Context(), tx)
		}
	} else {
		tx, err = s.service.RecordWithNextID(r.Context(), build)
	}
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	log.FromContext(r.Context()).DebugContext(r.Context(), "Transaction created via API",
		log.NewFields().WithTransaction(tx).ToSlice()...)
	writeJSON(w, http.StatusCreated, newTransactionView(tx))
}

// resolveRate picks the rate for a currency request. An inline rate that
// matches a registered one reuses the registered record so the pointer is
// shared; a conflicting inline rate is rejected by the service.
func (s *Server) resolveRate(req currencyRequest, currency core.CurrencyType) (*core.ExchangeRate, error) {
	switch {
	case req.ExchangeRate != nil:
		in := req.ExchangeRate
		rate, err := core.NewExchangeRate(in.ID, currency, in.Rate, in.date(s.today()))
		if err != nil {
			return nil, err
		}
		if known, ok := s.service.Rate(rate.ID()); ok && known.Equal(rate) {
			return known, nil
		}
		return rate, nil
	case req.ExchangeRateID != nil:
		rate, ok := s.service.Rate(*req.ExchangeRateID)
		if !ok {
			return nil, fmt.Errorf("exchange rate %d: %w", *req.ExchangeRateID, errUnknownRate)
		}
		return rate, nil
	}
	return nil, nil
}

func (s *Server) windowAndToday(r *http.Request) (report.Window, core.Date, error) {
	window, err := parseWindow(r, report.All)
	if err != nil {
		return "", core.Date{}, err
	}
	today, err := parseToday(r, s.today())
	if err != nil {
		return "", core.Date{}, err
	}
	return window, today, nil
}
