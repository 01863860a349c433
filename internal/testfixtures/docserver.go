package testfixtures

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// NewDocumentServer serves store over HTTP with the read-latest and overwrite
// routes docstore.Client speaks. Requests without accessKey in header get 401.
func NewDocumentServer(tb testing.TB, store *MemoryStore, header, accessKey string) *httptest.Server {
	tb.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(header) != accessKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, "/b/")
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(path, "/latest"):
			payload, err := store.ReadLatest(r.Context(), strings.TrimSuffix(path, "/latest"))
			if err != nil {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			record := json.RawMessage(bytes.TrimSpace(payload))
			if len(record) == 0 {
				record = json.RawMessage("null")
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"record": record})
		case r.Method == http.MethodPut:
			body, err := io.ReadAll(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if err := store.Replace(r.Context(), path, body); err != nil {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"record":` + string(body) + `}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	tb.Cleanup(server.Close)
	return server
}
