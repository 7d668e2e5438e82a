package log

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ContextKey type for context keys
type ContextKey string

const (
	LoggerContextKey    ContextKey = "logger"
	RequestIDContextKey ContextKey = "request_id"
)

// FromContext extracts the request logger, falling back to the default one.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// RequestID returns the request ID stored by Middleware, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// Middleware gives every request an ID and a logger carrying it, then logs
// the completed request at a level matching its status.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = generateRequestID()
			}
			w.Header().Set("X-Request-ID", requestID)

			reqLogger := logger.With(FieldRequestID, requestID)
			ctx := context.WithValue(r.Context(), LoggerContextKey, reqLogger)
			ctx = context.WithValue(ctx, RequestIDContextKey, requestID)

			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))

			NewStructuredLogger(reqLogger).LogHTTPEnd(ctx, r, rw.status, time.Since(start).Milliseconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

// StructuredLogger provides domain-specific log helpers.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTP(r.Method, r.URL.Path, statusCode, durationMs).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogLedgerSaved records a completed read-modify-write of one month file.
func (sl *StructuredLogger) LogLedgerSaved(ctx context.Context, folder, month string, added, total int) {
	fields := NewFields().
		WithMonth(folder, month).
		WithOperation(OpSaveMonth).
		WithComponent(ComponentLedger).
		ToSlice()
	fields = append(fields, "added", added, FieldEntries, total)

	sl.logger.Logger.InfoContext(ctx, "Month ledger saved", fields...)
}

func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	all := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.Logger.ErrorContext(ctx, msg, all.ToSlice()...)
}
