package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"giaodich/internal/core"
	"giaodich/internal/log"
	"giaodich/internal/middleware/trace"
	"giaodich/internal/report"
	"giaodich/internal/services"
)

// errUnknownRate is returned when a request references an unregistered rate.
var errUnknownRate = errors.New("exchange rate not registered")

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type transactionView struct {
	ID           int64              `json:"id"`
	Kind         core.Kind          `json:"kind"`
	Date         core.Date          `json:"date"`
	Quantity     float64            `json:"quantity"`
	UnitPrice    *float64           `json:"unit_price,omitempty"`
	GoldType     *core.GoldType     `json:"gold_type,omitempty"`
	CurrencyType *core.CurrencyType `json:"currency_type,omitempty"`
	ExchangeRate *rateView          `json:"exchange_rate,omitempty"`
	TotalAmount  float64            `json:"total_amount"`
}

type rateView struct {
	ID           int64             `json:"id"`
	CurrencyType core.CurrencyType `json:"currency_type"`
	Rate         float64           `json:"rate"`
	Effective    core.Date         `json:"effective"`
}

type transactionsResponse struct {
	Window       report.Window     `json:"window"`
	Today        core.Date         `json:"today"`
	Count        int               `json:"count"`
	Transactions []transactionView `json:"transactions"`
}

func newRateView(r *core.ExchangeRate) rateView {
	return rateView{ID: r.ID(), CurrencyType: r.Currency(), Rate: r.Rate(), Effective: r.Effective()}
}

func newTransactionView(tx core.Transaction) transactionView {
	v := transactionView{
		ID:          tx.ID(),
		Kind:        tx.Kind(),
		Date:        tx.Date(),
		Quantity:    tx.Quantity(),
		TotalAmount: tx.TotalAmount(),
	}
	if price, ok := tx.UnitPrice(); ok {
		v.UnitPrice = &price
	}
	switch t := tx.(type) {
	case *core.GoldTransaction:
		gt := t.GoldType()
		v.GoldType = &gt
	case *core.CurrencyTransaction:
		ct := t.Currency()
		v.CurrencyType = &ct
		if rate := t.ExchangeRate(); rate != nil {
			rv := newRateView(rate)
			v.ExchangeRate = &rv
		}
	}
	return v
}

func newTransactionViews(txs []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for _, tx := range txs {
		out = append(out, newTransactionView(tx))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message, RequestID: trace.FromRequest(r)})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, report.ErrUnknownWindow):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidEnumValue),
		errors.Is(err, core.ErrInvalidRate),
		errors.Is(err, core.ErrInvalidArgumentCount),
		errors.Is(err, core.ErrMissingExchangeRate),
		errors.Is(err, services.ErrRateConflict),
		errors.Is(err, errUnknownRate):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeFailure writes err with its mapped status. Server errors are logged
// and their details withheld from the client.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.NewFields().WithError(err).ToSlice()...)
		writeError(w, r, status, "internal server error")
		return
	}
	writeError(w, r, status, err.Error())
}
