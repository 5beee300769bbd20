package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"giaodich/internal/core"
)

var ErrUnknownEventType = errors.New("unknown event type")

type EventType string

const (
	EventRecorded EventType = "recorded"
	EventRemoved  EventType = "removed"
)

// TransactionEvent announces a ledger mutation. It carries enough to log
// and route the event; consumers read the ledger itself for the details.
type TransactionEvent struct {
	EventID       string    `json:"event_id"`
	Type          EventType `json:"type"`
	TransactionID int64     `json:"transaction_id"`
	Kind          core.Kind `json:"kind"`
	Date          core.Date `json:"date"`
	TotalAmount   float64   `json:"total_amount"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(eventType EventType, tx core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		EventID:       uuid.NewString(),
		Type:          eventType,
		TransactionID: tx.ID(),
		Kind:          tx.Kind(),
		Date:          tx.Date(),
		TotalAmount:   tx.TotalAmount(),
		Timestamp:     time.Now().UTC(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes an event and rejects unknown event types.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Type {
	case EventRecorded, EventRemoved:
		return &e, nil
	default:
		return nil, fmt.Errorf("%q: %w", e.Type, ErrUnknownEventType)
	}
}
