// Package http serves the ledger over a JSON API.
//
// This file implements helpers that read request bodies and path or query
// values into domain types.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"monthlyexpenses/internal/core"
)

const maxBodyBytes = 64 << 10

var errInvalidIndex = errors.New("invalid entry index")

// RequestBodyParser reads a JSON object or a form-encoded body once and
// serves string values from it.
type RequestBodyParser struct {
	jsonData map[string]any
	formData url.Values
}

// ParseRequestBody reads and decodes the body of r.
func ParseRequestBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	p := &RequestBodyParser{}
	trimmed := strings.TrimSpace(string(body))
	switch {
	case trimmed == "":
		p.formData = url.Values{}
	case trimmed[0] == '{':
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(body, &p.jsonData); err != nil {
			return nil, fmt.Errorf("decode JSON body: %w", err)
		}
	default:
		if p.formData, err = url.ParseQuery(trimmed); err != nil {
			return nil, fmt.Errorf("decode form body: %w", err)
		}
	}
	return p, nil
}

// Get returns a trimmed string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	return sanitizeInput(p.formData.Get(key))
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// entryInput is the entry form as typed by the user.
type entryInput struct {
	Type    core.ExpenseType
	Subtype string
	Amount  string
}

func parseEntryInput(p *RequestBodyParser) entryInput {
	return entryInput{
		Type:    core.ExpenseType(p.Get("type")),
		Subtype: p.Get("subtype"),
		Amount:  p.Get("amount"),
	}
}

// parseIndex reads the {index} path value.
func parseIndex(r *http.Request) (int, error) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || i < 0 {
		return 0, errInvalidIndex
	}
	return i, nil
}

// parseMonthValue parses a YYYY-MM value, naming the parameter in the error.
func parseMonthValue(name, value string) (core.Month, error) {
	if strings.TrimSpace(value) == "" {
		return core.Month{}, fmt.Errorf("%w: %s is required", core.ErrInvalidMonth, name)
	}
	return core.ParseMonth(value)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
