package mw

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
	RetryAfter int `json:"retryAfter,omitempty"`
}

// deny writes the API error envelope. Middlewares reject before any handler
// runs, so they cannot share the handlers' writer.
func deny(w http.ResponseWriter, status int, code, msg string) {
	denyWith(w, status, code, msg, 0)
}

func denyWith(w http.ResponseWriter, status int, code, msg string, retryAfter int) {
	var body errorBody
	body.Error.Message = msg
	body.Error.Code = code
	body.RetryAfter = retryAfter

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
