package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/example/sanshin-calendar/internal/bootstrap"
	"github.com/example/sanshin-calendar/internal/config"
	"github.com/example/sanshin-calendar/internal/docstore"
	"github.com/example/sanshin-calendar/internal/testfixtures"
)

func TestNewServerUsesConfiguredPort(t *testing.T) {
	server := newServer(config.Config{HTTPPort: 9090}, http.NotFoundHandler())

	if server.Addr != ":9090" {
		t.Fatalf("expected addr :9090, got %q", server.Addr)
	}
	if server.ReadHeaderTimeout == 0 || server.WriteTimeout == 0 || server.IdleTimeout == 0 {
		t.Fatalf("expected timeouts to be set, got %+v", server)
	}
}

func TestServeStopsOnContextCancel(t *testing.T) {
	store := testfixtures.NewMemoryStore()
	docs := testfixtures.NewDocumentServer(t, store, docstore.DefaultKeyHeader, "access")

	cfg := config.Config{
		Store: config.StoreConfig{
			BaseURL:          docs.URL,
			AccessKey:        "access",
			Timeout:          2 * time.Second,
			SessionsDoc:      testfixtures.SessionsDocument,
			RegistrationsDoc: testfixtures.RegistrationsDocument,
			AdminConfigDoc:   testfixtures.AdminConfigDocument,
		},
		CacheDSN:    testfixtures.SQLiteCacheDSN(t),
		AdminSecret: "secret",
		Retention:   90 * 24 * time.Hour,
	}
	logger := testfixtures.DiscardLogger()
	app, err := bootstrap.Open(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := newServer(cfg, app.Handler(logger))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, server, ln, logger)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/calendar")
	if err != nil {
		t.Fatalf("GET /calendar: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
