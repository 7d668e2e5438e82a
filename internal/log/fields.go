package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldFolder      = "folder"
	FieldMonth       = "month"
	FieldRangeStart  = "range_start"
	FieldRangeEnd    = "range_end"
	FieldExpenseType = "expense_type"
	FieldSubtype     = "subtype"
	FieldAmount      = "amount"
	FieldEntries     = "entries"
)

// Component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentDraft   = "draft"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
	ComponentCLI     = "cli"
)

// Operation names
const (
	OpPickFolder = "pick_folder"
	OpLoadMonth  = "load_month"
	OpSaveMonth  = "save_month"
	OpTotal      = "total"
	OpDeviations = "deviations"
	OpPublish    = "publish"
	OpMirror     = "mirror"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)

// LogFields is a builder for structured log attributes.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithError adds the error text; nil errors are ignored.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithMonth adds the folder and month a ledger operation worked on.
func (f LogFields) WithMonth(folder, month string) LogFields {
	f[FieldFolder] = folder
	f[FieldMonth] = month
	return f
}

// WithRange adds an inclusive month range and the expense type it was summed for.
func (f LogFields) WithRange(start, end, expenseType string) LogFields {
	f[FieldRangeStart] = start
	f[FieldRangeEnd] = end
	f[FieldExpenseType] = expenseType
	return f
}

// WithEntry adds the fields of a single expense entry.
func (f LogFields) WithEntry(expenseType, subtype string, amount float64) LogFields {
	f[FieldExpenseType] = expenseType
	if subtype != "" {
		f[FieldSubtype] = subtype
	}
	f[FieldAmount] = amount
	return f
}

func (f LogFields) WithHTTP(method, path string, statusCode int, durationMs int64) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts the fields to slog key/value arguments.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
