package handlers

import "net/http"

// NewIndexHandler answers the liveness probe at the API root.
func NewIndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Book Collection API is running"))
	}
}
