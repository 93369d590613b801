package httpx

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope every endpoint answers with. Successes carry data,
// failures carry a message plus an optional detail list; both carry the
// status code in the body so clients never have to read headers.
type Response struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data,omitempty"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitempty"`
}

// WriteSuccess writes a success envelope with the given status code.
func WriteSuccess(w http.ResponseWriter, code int, data any, message string) {
	writeJSON(w, code, Response{
		StatusCode: code,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// WriteFailure writes a failure envelope. The message is user-facing and must
// never carry internal detail; details are optional field-level errors.
func WriteFailure(w http.ResponseWriter, code int, message string, details ...string) {
	writeJSON(w, code, Response{
		StatusCode: code,
		Message:    message,
		Success:    false,
		Errors:     details,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// Required for token-bearing responses.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
