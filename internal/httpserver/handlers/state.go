package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/profileqr/internal/domain"
	"github.com/MrSnakeDoc/profileqr/internal/httpserver/deps"
	"github.com/MrSnakeDoc/profileqr/internal/state"
	"github.com/MrSnakeDoc/profileqr/internal/validation"
)

type stateResponse struct {
	State    *domain.PersistedState `json:"state"`
	Warnings []state.Warning        `json:"warnings,omitempty"`
	Reset    bool                   `json:"reset"`
	Dropped  []string               `json:"dropped,omitempty"`
}

type statePatchRequest struct {
	RendererConfig *domain.RendererConfigPatch `json:"rendererConfig,omitempty"`
	Preferences    *domain.PreferencesPatch    `json:"preferences,omitempty"`
}

// GetState returns the decoded state cookie. Corrupt or stale state is
// cleared and reported with reset=true.
func GetState(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := d.States.Read(d.States.FromRequest(r))
		if res.ShouldReset {
			http.SetCookie(w, d.States.Clear())
			writeJSON(w, http.StatusOK, stateResponse{Reset: true})
			return
		}
		writeJSON(w, http.StatusOK, stateResponse{State: res.State, Warnings: res.Warnings})
	}
}

// PatchState merges renderer config and preference updates into the state.
func PatchState(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statePatchRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}

		var errs validation.Errors
		errs = append(errs, validation.RendererConfigPatch("rendererConfig", req.RendererConfig)...)
		errs = append(errs, validation.PreferencesPatch("preferences", req.Preferences)...)
		if len(errs) > 0 {
			writeServiceError(w, d, errs)
			return
		}

		current, reset := loadState(r, d)
		next := d.States.Merge(current, state.Update{
			RendererConfig: req.RendererConfig,
			Preferences:    req.Preferences,
		})

		written, err := d.States.Write(next, state.WriteOptions{})
		if err != nil {
			if reset {
				http.SetCookie(w, d.States.Clear())
			}
			writeServiceError(w, d, err)
			return
		}

		http.SetCookie(w, d.States.Cookie(written.Value))
		writeJSON(w, http.StatusOK, stateResponse{
			State:   written.State,
			Reset:   reset,
			Dropped: written.Dropped,
		})
	}
}

// DeleteState clears the state cookie. Idempotent.
func DeleteState(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, d.States.Clear())
		w.WriteHeader(http.StatusNoContent)
	}
}
