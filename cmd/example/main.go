package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/nicktill/tinytrack/pkg/config"
	"github.com/nicktill/tinytrack/pkg/sdk/transport"
	"github.com/nicktill/tinytrack/pkg/storage"
	"github.com/nicktill/tinytrack/pkg/storage/badger"
)

const (
	projectID = "proj_example"
	origin    = "https://shop.example.com"
)

func main() {
	log.Println("🚀 Starting tinytrack example...")

	endpoint, err := url.Parse(config.Endpoint)
	if err != nil {
		log.Fatalf("❌ Invalid endpoint %q: %v", config.Endpoint, err)
	}

	// Debug sink standing in for the collection endpoint
	sink := newSink()
	server := &http.Server{
		Addr:         endpoint.Host,
		Handler:      sink.router(endpoint.Path),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("📡 Debug sink listening on %s", config.Endpoint)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Sink failed to start: %v", err)
		}
	}()

	dataDir := filepath.Join(config.DefaultDataDir, "sessions")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("❌ Failed to create data directory: %v", err)
	}
	var kv storage.KV
	store, err := badger.New(badger.Config{Path: dataDir, Origin: origin})
	if err != nil {
		// The collector copes without storage; the example keeps going.
		log.Printf("⚠️  Session storage unavailable, sessions will not survive page loads: %v", err)
	} else {
		defer store.Close()
		kv = store
		log.Printf("💾 Session storage: %s (origin %s)", dataDir, origin)
	}

	debug := log.New(os.Stderr, "[tinytrack] ", log.LstdFlags)
	newBeacon := func() transport.Transport {
		beacon, err := transport.NewBeacon(config.Endpoint, transport.WithLogger(debug))
		if err != nil {
			log.Printf("⚠️  No beacon transport: %v", err)
			return nil
		}
		return beacon
	}

	v := &visitor{
		projectID: projectID,
		storage:   kv,
		logger:    debug,
		newBeacon: newBeacon,
	}

	// Two page loads in the same browsing context share a session.
	v.browse("/", "https://search.example/?q=shoes", []step{
		click("A", "nav-products", "nav-link"),
		scrollTo(0.3),
		scrollTo(0.9),
		navigate("/products/42"),
		click("BUTTON", "add-to-cart", "btn btn-primary"),
		back(),
		hide(),
	})
	v.browse("/checkout", origin+"/products/42", []step{
		click("INPUT", "email", ""),
		click("BUTTON", "pay", "btn"),
		scrollTo(1.0),
		unload(),
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.CloseTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Sink shutdown warning: %v", err)
	}

	log.Printf("📊 Sink received %d batches, %d events, %d sessions",
		sink.batchCount(), sink.eventCount(), sink.sessionCount())
	log.Println("👋 Example exited")
}
