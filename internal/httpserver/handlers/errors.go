package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/profileqr/internal/cache"
	"github.com/MrSnakeDoc/profileqr/internal/httpserver/deps"
	"github.com/MrSnakeDoc/profileqr/internal/httpserver/mw"
	"github.com/MrSnakeDoc/profileqr/internal/identifier"
	"github.com/MrSnakeDoc/profileqr/internal/logger"
	"github.com/MrSnakeDoc/profileqr/internal/ratelimit"
	"github.com/MrSnakeDoc/profileqr/internal/state"
	"github.com/MrSnakeDoc/profileqr/internal/validation"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 256 << 10

// Error codes not owned by a domain package
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeBatchTooLarge    = "batch_too_large"
	codeGenerationFailed = "generation_failed"
	codeMirrorFailed     = "mirror_unavailable"
	codeTimeout          = "timeout"
	codeCancelled        = "cancelled"
	codeInternal         = "internal_error"
)

type apiError struct {
	Message   string `json:"message"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
}

type errorResponse struct {
	Error   apiError          `json:"error"`
	Details validation.Errors `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: apiError{Message: msg, Code: code}})
}

// writeServiceError maps the error taxonomy to a status code and envelope.
func writeServiceError(w http.ResponseWriter, d deps.Deps, err error) {
	var (
		inputErr *identifier.InputError
		tooLarge *state.TooLargeError
		limitErr *ratelimit.LimitError
		batchErr *ratelimit.BatchSizeError
		genErr   *cache.GenerationError
	)

	if errs, ok := validation.As(err); ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   apiError{Message: "request failed validation", Code: codeValidationFailed},
			Details: errs,
		})
		return
	}

	switch {
	case errors.As(err, &inputErr):
		writeError(w, http.StatusBadRequest, inputErr.Code, inputErr.Message)
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, tooLarge.Code(), tooLarge.Error())
	case errors.As(err, &limitErr):
		mw.WriteRateLimited(w, limitErr.RetryAfter)
	case errors.As(err, &batchErr):
		writeError(w, http.StatusRequestEntityTooLarge, codeBatchTooLarge, batchErr.Error())
	case errors.As(err, &genErr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: apiError{
			Message:   "could not generate the QR code, please retry",
			Code:      codeGenerationFailed,
			Retryable: true,
		}})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: apiError{
			Message: "request timed out", Code: codeTimeout, Retryable: true,
		}})
	case errors.Is(err, context.Canceled):
		// client went away, nobody reads this
		writeError(w, http.StatusServiceUnavailable, codeCancelled, "request cancelled")
	default:
		d.Logger.Error("unhandled error", logger.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

// decodeJSON reads a single JSON document into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("content type must be application/json")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON document")
	}
	return nil
}
