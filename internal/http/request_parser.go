// Package http provides the JSON API over the ledger service.
//
// This file parses query parameters and request bodies.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"giaodich/internal/core"
	"giaodich/internal/report"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks client errors in the request shape.
var errBadRequest = errors.New("bad request")

var dateLayouts = []string{"2006-01-02", "02/01/2006"}

// parseToday reads the "today" query parameter as YYYY-MM-DD or DD/MM/YYYY,
// falling back to def.
func parseToday(r *http.Request, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get("today"))
	if v == "" {
		return def, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, fmt.Errorf("today %q: expected YYYY-MM-DD: %w", v, errBadRequest)
}

// parseWindow reads the "window" query parameter, falling back to def.
func parseWindow(r *http.Request, def report.Window) (report.Window, error) {
	v := strings.TrimSpace(r.URL.Query().Get("window"))
	if v == "" {
		return def, nil
	}
	return report.ParseWindow(v)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("transaction id %q: %w", s, errBadRequest)
	}
	return id, nil
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty request body: %w", errBadRequest)
		}
		return fmt.Errorf("decode body: %v: %w", err, errBadRequest)
	}
	if dec.More() {
		return fmt.Errorf("body must contain a single JSON object: %w", errBadRequest)
	}
	return nil
}

// enumValue accepts an enum either by name ("USD") or by index (1).
type enumValue struct {
	raw string
	set bool
}

func (e *enumValue) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		e.raw, e.set = strconv.Itoa(n), true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("enum must be a name or an index")
	}
	e.raw, e.set = s, true
	return nil
}

type dateFields struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// date returns the given fields, or today when none were sent.
func (d dateFields) date(today core.Date) core.Date {
	if d == (dateFields{}) {
		return today
	}
	return core.NewDate(d.Year, d.Month, d.Day)
}

type goldRequest struct {
	ID *int64 `json:"id"`
	dateFields
	UnitPrice float64   `json:"unit_price"`
	Quantity  float64   `json:"quantity"`
	GoldType  enumValue `json:"gold_type"`
}

type rateRequest struct {
	ID   int64   `json:"id"`
	Rate float64 `json:"rate"`
	dateFields
}

type currencyRequest struct {
	ID *int64 `json:"id"`
	dateFields
	Quantity       float64      `json:"quantity"`
	CurrencyType   enumValue    `json:"currency_type"`
	ExchangeRateID *int64       `json:"exchange_rate_id"`
	ExchangeRate   *rateRequest `json:"exchange_rate"`
}
