package main

import (
	"context"
	"log"
	"time"

	"github.com/nicktill/tinytrack/pkg/config"
	"github.com/nicktill/tinytrack/pkg/sdk"
	"github.com/nicktill/tinytrack/pkg/sdk/sources"
	"github.com/nicktill/tinytrack/pkg/sdk/transport"
	"github.com/nicktill/tinytrack/pkg/storage"
)

// step is one thing the simulated visitor does on a page
type step func(h *sources.SimHost)

// pageHeight and viewport are the simulated document geometry in px
const (
	pageHeight = 4000.0
	viewport   = 800.0
)

func click(tag, id, class string) step {
	return func(h *sources.SimHost) {
		h.Click(sources.Target{Tag: tag, ID: id, Class: class})
	}
}

// scrollTo scrolls so the bottom of the viewport sits at depth (0..1)
func scrollTo(depth float64) step {
	return func(h *sources.SimHost) {
		y := depth*pageHeight - viewport
		if y < 0 {
			y = 0
		}
		h.Scroll(sources.Viewport{ScrollY: y, InnerHeight: viewport, ScrollHeight: pageHeight})
	}
}

func navigate(path string) step {
	return func(h *sources.SimHost) { h.PushState(path) }
}

func back() step {
	return func(h *sources.SimHost) { h.Back() }
}

func hide() step {
	return func(h *sources.SimHost) {
		h.SetVisibility(sources.Hidden)
		h.PageHide()
	}
}

func unload() step {
	return func(h *sources.SimHost) { h.Unload() }
}

// visitor replays page loads. Each browse call is one full page load:
// fresh collector, fresh scroll depth, shared session storage.
type visitor struct {
	projectID string
	storage   storage.KV
	logger    *log.Logger
	newBeacon func() transport.Transport
}

func (v *visitor) browse(path, referrer string, steps []step) {
	host := sources.NewSimHost(path, referrer)
	collector := sdk.New(sdk.Config{
		ProjectID: v.projectID,
		Host:      host,
		Transport: v.newBeacon(),
		Storage:   v.storage,
		Logger:    v.logger,
	})
	if !collector.Enabled() {
		log.Printf("⏸️  Collector disabled on %s, skipping visit", path)
		return
	}

	log.Printf("🌐 Page load %s (session %s)", path, shortID(collector.SessionID()))
	collector.Start()
	for _, s := range steps {
		s(host)
		time.Sleep(200 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.CloseTimeout)
	defer cancel()
	if err := collector.Stop(ctx); err != nil {
		log.Printf("⚠️  Page teardown did not finish delivery: %v", err)
	}
}
