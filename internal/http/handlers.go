package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"masarif/internal/core"
	applog "masarif/internal/log"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]any{
		"categories": s.service.Registry().List(),
		"default":    s.defaultCategory,
	}).Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	log := s.service.List(r.Context())
	NewJSONResponse().JSON(map[string]any{
		"count":    len(log),
		"expenses": toExpenseViews(log),
	}).Write(w)
}

// handleNewExpenseForm returns the pre-filled values of a blank entry form.
func (s *Server) handleNewExpenseForm(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(s.service.NewForm(s.defaultCategory)).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	params, err := ParseSummaryParams(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	summary := s.service.Summary(r.Context(), params.Today)
	NewJSONResponse().JSON(toSummaryView(summary, params.Days)).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	key := r.Header.Get(headerIdempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		BadRequestError("Idempotency-Key too long").Write(w)
		return
	}

	in, categoryPresent, err := ParseExpenseInput(r)
	if err != nil {
		logger.WarnContext(ctx, "Malformed expense request", applog.FieldError, err)
		BadRequestError(err.Error()).Write(w)
		return
	}
	if !categoryPresent {
		in.Category = s.defaultCategory
	}

	record := func() (core.Expense, error) { return s.service.Record(ctx, in) }
	var (
		e        core.Expense
		replayed bool
	)
	if key != "" {
		e, replayed, err = s.idempotency.Once(key, record)
	} else {
		e, err = record()
	}
	if replayed {
		logger.InfoContext(ctx, "Replaying idempotent expense", applog.FieldExpenseID, e.ID)
		NewJSONResponse().Header(headerReplayed, "true").JSON(toExpenseView(e)).Write(w)
		return
	}

	switch {
	case err == nil:
	case isValidationError(err):
		logger.InfoContext(ctx, "Expense rejected", applog.FieldError, err)
		ValidationError(err).Write(w)
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ErrorResponse(http.StatusServiceUnavailable, "request cancelled").Write(w)
		return
	default:
		applog.NewStructuredLogger(logger).LogError(ctx, "Expense append error", err,
			applog.ComponentHTTP, applog.OpCreate, applog.NewFields())
		InternalServerError("could not save the expense").Write(w)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses").
		JSON(toExpenseView(e)).
		Write(w)
}
