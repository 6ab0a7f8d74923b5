/*
Package sdk provides the tinytrack collector: page views, clicks, scroll
depth and session continuity, batched and delivered fire-and-forget to a
collection endpoint.

# Quick Start

	package main

	import (
	    "context"

	    "github.com/nicktill/tinytrack/pkg/config"
	    "github.com/nicktill/tinytrack/pkg/sdk"
	    "github.com/nicktill/tinytrack/pkg/sdk/sources"
	    "github.com/nicktill/tinytrack/pkg/sdk/transport"
	    "github.com/nicktill/tinytrack/pkg/storage"
	    "github.com/nicktill/tinytrack/pkg/storage/badger"
	)

	func main() {
	    // Leave the interfaces nil when construction fails
	    var beacon transport.Transport
	    if b, err := transport.NewBeacon(config.Endpoint); err == nil {
	        beacon = b
	    }
	    var store storage.KV
	    if db, err := badger.New(badger.Config{Path: "./data", Origin: "https://shop.example.com"}); err == nil {
	        store = db
	        defer db.Close()
	    }

	    host := sources.NewSimHost("/", "")

	    collector := sdk.New(sdk.Config{
	        ProjectID: "proj_123",
	        Host:      host,
	        Transport: beacon,
	        Storage:   store,
	    })
	    collector.Start() // records the initial pageview
	    defer collector.Stop(context.Background())

	    host.Click(sources.Target{Tag: "BUTTON", ID: "buy"})
	}

A nil transport disables the collector and a nil store degrades to one
session per page load. Neither is ever reported to the page. New also
treats an interface wrapping a nil pointer as nil, but assigning through
interface-typed variables as above keeps the intent visible.

# What Gets Collected

Every record carries projectId, sessionId, type, page, referrer and ts
(epoch milliseconds). Type-specific fields sit next to them:

  - pageview: initial load, pushState-style route changes, back/forward
  - click: tag, id, class (id and class are null when empty)
  - scroll: percent, one record per 25% threshold, never repeated

Custom types go through Track:

	collector.Track("signup", events.Extras{"plan": "pro"})

# Batching & Flushing

Records are queued in observation order and sent as one JSON array when:
 1. the queue reaches config.BatchSize (10), immediately, OR
 2. config.FlushInterval (5 seconds) has passed since the first
    unflushed event armed the timer, OR
 3. the page is hidden, hides or unloads (Flush is called directly).

Only one deferred flush is ever armed. Forced flushes do not cancel it;
if it fires on an empty queue nothing is sent.

# Sessions

A session id lives in origin-scoped storage under config.SessionKey as
{"id": "...", "last": epoch-millis}. Every event renews it; after
config.SessionTimeout (30 minutes) without events the next event starts
a new session.

# Failure Model

  - No project id, no transport or no host: disabled, no listener, no storage access
  - Storage errors: a session id unique to this page load is used instead
  - Delivery errors: invisible; batches are sent at most once
  - Panics inside the collector: recovered and logged to Config.Logger

Nothing is ever returned to or raised in the host.
*/
package sdk
