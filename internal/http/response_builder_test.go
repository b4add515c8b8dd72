package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"masarif/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses").
		JSON(map[string]int{"id": 7}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Location"); got != "/api/expenses" {
		t.Errorf("Location = %q", got)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"id":7}` {
		t.Errorf("Body = %q", got)
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}
}

func TestJSONResponseBuilder_EncodingFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().JSON(map[string]any{"bad": make(chan int)}).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d", w.Code)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		builder *JSONResponseBuilder
		code    int
	}{
		{BadRequestError("bad"), http.StatusBadRequest},
		{InternalServerError("boom"), http.StatusInternalServerError},
		{ErrorResponse(http.StatusTooManyRequests, "slow down"), http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		tt.builder.Write(w)
		if w.Code != tt.code {
			t.Errorf("Status code = %d, want %d", w.Code, tt.code)
		}
		if !strings.Contains(w.Body.String(), `"error":`) {
			t.Errorf("Body missing error: %s", w.Body.String())
		}
	}
}

func TestValidationErrorNamesField(t *testing.T) {
	tests := []struct {
		err   error
		field string
	}{
		{core.ErrInvalidAmount, "amount"},
		{fmt.Errorf("wrapped: %w", core.ErrMissingCategory), "category"},
		{core.ErrInvalidDate, "date"},
		{core.ErrInvalidTime, "time"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		ValidationError(tt.err).Write(w)
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("%v: status = %d", tt.err, w.Code)
		}
		if !strings.Contains(w.Body.String(), `"field":"`+tt.field+`"`) {
			t.Errorf("%v: body = %s", tt.err, w.Body.String())
		}
	}

	if isValidationError(core.ErrStorageCorrupt) {
		t.Errorf("storage errors are not validation errors")
	}
}
