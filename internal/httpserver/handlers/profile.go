package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/profileqr/internal/domain"
	"github.com/MrSnakeDoc/profileqr/internal/httpserver/deps"
	"github.com/MrSnakeDoc/profileqr/internal/identifier"
	"github.com/MrSnakeDoc/profileqr/internal/logger"
	"github.com/MrSnakeDoc/profileqr/internal/state"
	"github.com/MrSnakeDoc/profileqr/internal/validation"
)

type profileRequest struct {
	Input string `json:"input"`
}

type profileResponse struct {
	identifier.Result
	UsageCount int             `json:"usageCount,omitempty"`
	Persisted  bool            `json:"persisted"`
	Warnings   []state.Warning `json:"warnings,omitempty"`
}

// Profile normalizes a submitted profile reference, scores it and records it
// in the state cookie.
func Profile(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req profileRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		if errs := validation.RawInput("input", req.Input); len(errs) > 0 {
			writeServiceError(w, d, errs)
			return
		}

		result, err := d.Pipeline.Process(req.Input)
		if err != nil {
			writeServiceError(w, d, err)
			return
		}

		current, reset := loadState(r, d)
		next := d.States.Merge(current, state.Update{IdentifierURL: &result.URL})

		resp := profileResponse{Result: result}
		written, err := d.States.Write(next, state.WriteOptions{})
		if err != nil {
			// the identifier itself is fine, only persisting failed
			d.Logger.Warn("state not persisted",
				logger.String("username", result.Username),
				logger.Error(err))
			resp.Warnings = append(resp.Warnings, state.Warning{Code: state.CodeTooLarge, Message: err.Error()})
			if reset {
				http.SetCookie(w, d.States.Clear())
			}
		} else {
			http.SetCookie(w, d.States.Cookie(written.Value))
			resp.Persisted = true
			resp.UsageCount = written.State.IdentifierRecord.UsageCount
		}

		d.Logger.Debug("profile normalized",
			logger.String("username", result.Username),
			logger.Int("risk_score", result.Suspicion.RiskScore),
			logger.Bool("persisted", resp.Persisted))

		writeJSON(w, http.StatusOK, resp)
	}
}

// loadState reads the state cookie. A corrupt or stale state is discarded:
// it returns nil and reset=true, and the caller must either write a fresh
// state or send d.States.Clear().
func loadState(r *http.Request, d deps.Deps) (*domain.PersistedState, bool) {
	res := d.States.Read(d.States.FromRequest(r))
	if res.ShouldReset {
		d.Logger.Info("discarding client state",
			logger.Int("errors", len(res.Errors)),
			logger.Bool("stale", res.State != nil))
		return nil, true
	}
	return res.State, false
}
