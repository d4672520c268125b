package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// Endpoints disagree on the name of the success flag; both are part of the
// wire contract.
const (
	keyOK      = "ok"
	keySuccess = "success"
)

func writeRawJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeJSON writes a 200 response with the success flag set under key.
func writeJSON(w http.ResponseWriter, key string, fields map[string]any) {
	payload := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload[key] = true
	writeRawJSON(w, http.StatusOK, payload)
}

func writeOK(w http.ResponseWriter, fields map[string]any) {
	writeJSON(w, keyOK, fields)
}

// writeError writes {key: false, error: message}.
func writeError(w http.ResponseWriter, status int, key, message string) {
	if status < 400 {
		status = http.StatusInternalServerError
	}
	writeRawJSON(w, status, map[string]any{
		key:     false,
		"error": message,
	})
}

func writeErrorWithErr(w http.ResponseWriter, status int, key, message string, err error) {
	if err == nil {
		writeError(w, status, key, message)
		return
	}
	if message == "" {
		writeError(w, status, key, err.Error())
		return
	}
	writeError(w, status, key, message+": "+err.Error())
}

// decodeBody decodes a JSON object body, keeping numbers as json.Number.
func decodeBody(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, errors.New("body must be a JSON object")
	}
	return body, nil
}

// stringField returns body[key] if it is a non-empty string.
func stringField(body map[string]any, key string) (string, bool) {
	s, ok := body[key].(string)
	return s, ok && s != ""
}

// parseNumber accepts a JSON number or a numeric string.
func parseNumber(v any) (decimal.Decimal, bool) {
	var raw string
	switch t := v.(type) {
	case json.Number:
		raw = t.String()
	case string:
		raw = strings.TrimSpace(t)
	default:
		return decimal.Decimal{}, false
	}
	if raw == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// parseQty accepts any integer-valued number, so 5.0 passes and 5.5 does not.
func parseQty(v any) (int, bool) {
	d, ok := parseNumber(v)
	if !ok || !d.IsInteger() {
		return 0, false
	}
	bi := d.BigInt()
	if !bi.IsInt64() {
		return 0, false
	}
	n := bi.Int64()
	if int64(int(n)) != n {
		return 0, false
	}
	return int(n), true
}

func parsePlanned(v any) (float64, bool) {
	d, ok := parseNumber(v)
	if !ok {
		return 0, false
	}
	return d.InexactFloat64(), true
}
