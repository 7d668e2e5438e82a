// Package http serves the ledger over a JSON API.
//
// This file implements the builder used for every response. It keeps the
// HX-Trigger header and the JSON body encoding consistent across handlers.

package http

import (
	"encoding/json"
	"net/http"
)

// ResponseBuilder provides a fluent API for building JSON responses with
// client-side triggers.
type ResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       any
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *ResponseBuilder) Trigger(name string, data any) *ResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerLedgerSaved tells clients that a month file changed.
func (b *ResponseBuilder) TriggerLedgerSaved(month string, entries int) *ResponseBuilder {
	return b.Trigger("ledger:saved", map[string]any{"month": month, "entries": entries})
}

// TriggerDraftChanged tells clients to redraw the draft table.
func (b *ResponseBuilder) TriggerDraftChanged(count int) *ResponseBuilder {
	return b.Trigger("draft:changed", map[string]int{"count": count})
}

func (b *ResponseBuilder) TriggerFolderSelected(location string) *ResponseBuilder {
	return b.Trigger("folder:selected", map[string]string{"location": location})
}

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// TriggerNotification adds a show-notification trigger. A zero duration
// keeps the notice on screen until the user dismisses it.
func (b *ResponseBuilder) TriggerNotification(notifType NotificationType, message string, durationMs int) *ResponseBuilder {
	return b.Trigger("show-notification", map[string]any{
		"type":     string(notifType),
		"message":  message,
		"duration": durationMs,
	})
}

func (b *ResponseBuilder) TriggerSuccessNotification(message string) *ResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

func (b *ResponseBuilder) TriggerErrorNotification(message string) *ResponseBuilder {
	return b.TriggerNotification(NotificationError, message, 5000)
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if len(b.triggers) > 0 {
		if triggerJSON, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}
	if b.body != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}

	w.WriteHeader(b.statusCode)
	if b.body != nil {
		_ = json.NewEncoder(w).Encode(b.body)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a JSON error response that also raises an error
// notification.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		TriggerErrorNotification(message).
		JSON(errorBody{Error: message})
}

// BlockingNotice answers a request whose precondition is not met. The
// notice stays up until dismissed.
func BlockingNotice(message string) *ResponseBuilder {
	return NewResponse().
		Status(http.StatusConflict).
		TriggerNotification(NotificationWarning, message, 0).
		JSON(errorBody{Error: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}
