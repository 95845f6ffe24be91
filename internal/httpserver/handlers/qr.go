package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/profileqr/internal/generate"
	"github.com/MrSnakeDoc/profileqr/internal/httpserver/deps"
	"github.com/MrSnakeDoc/profileqr/internal/httpserver/mw"
	"github.com/MrSnakeDoc/profileqr/internal/logger"
	"github.com/MrSnakeDoc/profileqr/internal/utils"
)

type batchRequest struct {
	Items []generate.Request `json:"items"`
}

type batchResponse struct {
	Items     []generate.BatchItem `json:"items"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
}

// GenerateQR renders (or serves from cache) one QR artifact.
func GenerateQR(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generate.Request
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}

		resp, err := d.Generator.Generate(r.Context(), req)
		if err != nil {
			writeServiceError(w, d, err)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// GenerateBatch renders several artifacts. The batch size is checked before
// the request is charged against the generate limiter, and a whole batch
// costs a single admission.
func GenerateBatch(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		if len(req.Items) == 0 {
			writeError(w, http.StatusBadRequest, codeBadRequest, "items must not be empty")
			return
		}

		client := utils.ClientIP(r, d.TrustProxy)
		decision, err := d.GenerateLimiter.CheckBatch(client, len(req.Items))
		if err != nil {
			if !decision.ResetAt.IsZero() {
				mw.SetRateLimitHeaders(w, decision)
			}
			writeServiceError(w, d, err)
			return
		}
		mw.SetRateLimitHeaders(w, decision)

		items := d.Generator.GenerateBatch(r.Context(), req.Items)
		resp := batchResponse{Items: items}
		for _, it := range items {
			if it.Error != nil {
				resp.Failed++
			} else {
				resp.Succeeded++
			}
		}

		d.Logger.Info("batch generated",
			logger.Int("items", len(items)),
			logger.Int("failed", resp.Failed))

		writeJSON(w, http.StatusOK, resp)
	}
}
