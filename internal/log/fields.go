package log

import (
	"giaodich/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldWindow        = "window"
	FieldToday         = "today"
	FieldTransactionID = "transaction_id"
	FieldKind          = "kind"
	FieldTotalAmount   = "total_amount"
	FieldDate          = "date"
	FieldEventID       = "event_id"
	FieldEventType     = "event_type"
	FieldCount         = "count"
)

const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentLoader  = "loader"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
)

const (
	OpRecord   = "record"
	OpRemove   = "remove"
	OpList     = "list"
	OpReport   = "report"
	OpLoad     = "load"
	OpImport   = "import"
	OpPublish  = "publish"
	OpExport   = "export"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// Fields provides a builder for structured log attributes.
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithComponent(component string) Fields {
	f[FieldComponent] = component
	return f
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithTransaction adds the identifying fields of a transaction.
func (f Fields) WithTransaction(tx core.Transaction) Fields {
	f[FieldTransactionID] = tx.ID()
	f[FieldKind] = string(tx.Kind())
	f[FieldDate] = tx.Date().String()
	f[FieldTotalAmount] = tx.TotalAmount()
	return f
}

// WithWindow adds the report window and reference date.
func (f Fields) WithWindow(window string, today core.Date) Fields {
	f[FieldWindow] = window
	f[FieldToday] = today.String()
	return f
}

// ToSlice converts Fields to key/value pairs for slog.
func (f Fields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
