package openapi

import (
	"log/slog"
	"net/http"
)

// Handler serves the API document as JSON.
func Handler(logger *slog.Logger) http.HandlerFunc {
	doc := Spec()
	payload, err := doc.MarshalJSON()
	if err != nil {
		logger.Error("failed to marshal openapi document", "error", err)
		payload = []byte(`{"error":"openapi document unavailable"}`)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(payload); err != nil {
			logger.Warn("failed to write openapi document", "error", err)
		}
	}
}
