package config

import "time"

// Collection endpoint. Fixed at build time.
const (
	Endpoint = "http://localhost:8080/v1/collect"
)

// Batching and flush timing
const (
	BatchSize     = 10
	FlushInterval = 5 * time.Second
)

// Session continuity
const (
	SessionKey     = "__tinytrack_session"
	SessionTimeout = 30 * time.Minute
)

// Scroll depth is reported in steps of this many percent
const (
	ScrollStep = 25
)

// Beacon delivery limits
const (
	MaxBeaconBytes = 64 * 1024
	BeaconTimeout  = 10 * time.Second
	CloseTimeout   = 5 * time.Second
)

// WebSocket transport configuration
const (
	WSSendBuffer     = 64
	WSWriteDeadline  = 10 * time.Second
	WSHandshakeLimit = 5 * time.Second
)

// Session storage defaults
const (
	DefaultDataDir     = "./data"
	DefaultMaxMemoryMB = 16
)
