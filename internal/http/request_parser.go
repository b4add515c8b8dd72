package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"masarif/internal/core"
)

// maxBodyBytes caps POST bodies; an expense is a handful of short fields.
const maxBodyBytes = 16 << 10

// defaultSummaryDays is how many date rows /api/summary returns by default.
const defaultSummaryDays = 7

// ErrBadRequest marks malformed requests (as opposed to invalid values).
var ErrBadRequest = errors.New("bad request")

// expenseRequest is the JSON body of POST /api/expenses. Pointers tell an
// absent field from an empty one. Amount accepts a JSON number or string.
type expenseRequest struct {
	Amount      json.RawMessage `json:"amount"`
	Category    *string         `json:"category"`
	Description *string         `json:"description"`
	Date        *string         `json:"date"`
	Time        *string         `json:"time"`
}

// ParseExpenseInput reads a JSON or form-encoded expense. The second result
// reports whether the category field was present at all, so the caller can
// apply a default only to omitted categories.
func ParseExpenseInput(r *http.Request) (core.RawInput, bool, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return core.RawInput{}, false, fmt.Errorf("%w: read body: %v", ErrBadRequest, err)
	}
	if len(body) > maxBodyBytes {
		return core.RawInput{}, false, fmt.Errorf("%w: body too large", ErrBadRequest)
	}

	trimmed := bytes.TrimSpace(body)
	if mediaType == "application/json" || (mediaType == "" && len(trimmed) > 0 && trimmed[0] == '{') {
		return parseJSONInput(trimmed)
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return core.RawInput{}, false, fmt.Errorf("%w: parse form: %v", ErrBadRequest, err)
	}
	return parseFormInput(form)
}

func parseJSONInput(body []byte) (core.RawInput, bool, error) {
	var req expenseRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return core.RawInput{}, false, fmt.Errorf("%w: decode json: %v", ErrBadRequest, err)
	}
	if dec.More() {
		return core.RawInput{}, false, fmt.Errorf("%w: trailing data after json object", ErrBadRequest)
	}

	amount, err := rawAmount(req.Amount)
	if err != nil {
		return core.RawInput{}, false, err
	}
	in := core.RawInput{
		Amount:      amount,
		Category:    sanitizeInput(deref(req.Category)),
		Description: sanitizeInput(deref(req.Description)),
		Date:        strings.TrimSpace(deref(req.Date)),
		Time:        strings.TrimSpace(deref(req.Time)),
	}
	return in, req.Category != nil, nil
}

// rawAmount returns the amount as typed: a JSON string is unquoted, a JSON
// number is kept verbatim, null or absent is empty.
func rawAmount(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: amount: %v", ErrBadRequest, err)
		}
		return s, nil
	}
	return string(raw), nil
}

func parseFormInput(form url.Values) (core.RawInput, bool, error) {
	in := core.RawInput{
		Amount:      form.Get("amount"),
		Category:    sanitizeInput(form.Get("category")),
		Description: sanitizeInput(form.Get("description")),
		Date:        strings.TrimSpace(form.Get("date")),
		Time:        strings.TrimSpace(form.Get("time")),
	}
	return in, form.Has("category"), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SummaryParams holds the query parameters of /api/summary.
type SummaryParams struct {
	Today core.Date
	Days  int
}

// ParseSummaryParams reads today (YYYY-MM-DD, empty means the server's
// today) and days (0 means every date, default 7).
func ParseSummaryParams(query url.Values) (SummaryParams, error) {
	params := SummaryParams{Days: defaultSummaryDays}

	if v := strings.TrimSpace(query.Get("today")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return SummaryParams{}, fmt.Errorf("%w: today must be YYYY-MM-DD", ErrBadRequest)
		}
		params.Today = d
	}
	if v := strings.TrimSpace(query.Get("days")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return SummaryParams{}, fmt.Errorf("%w: days must be a non-negative integer", ErrBadRequest)
		}
		params.Days = n
	}
	return params, nil
}
