package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Type names what kind of behavior a record describes. The set is open:
// hosts may track their own types through the collector.
type Type string

const (
	PageView Type = "pageview"
	Click    Type = "click"
	Scroll   Type = "scroll"
)

// Extras carries type-specific fields (tag/id/class for clicks, percent
// for scroll depth). Keys that collide with a core field are dropped.
type Extras map[string]any

// Record is one observed behavior. Build it with New; a Record is never
// modified after construction.
type Record struct {
	ProjectID string `json:"projectId"`
	SessionID string `json:"sessionId"`
	Type      Type   `json:"type"`
	Page      string `json:"page"`
	Referrer  string `json:"referrer"`
	TS        int64  `json:"ts"`

	extras Extras
}

// Context is everything the collector attaches to a record besides the
// event type and extras.
type Context struct {
	ProjectID string
	SessionID string
	Page      string
	Referrer  string
	Time      time.Time
}

var coreFields = map[string]bool{
	"projectId": true,
	"sessionId": true,
	"type":      true,
	"page":      true,
	"referrer":  true,
	"ts":        true,
}

// New builds a record. extras is copied, so the caller may reuse it.
func New(ctx Context, eventType Type, extras Extras) Record {
	r := Record{
		ProjectID: ctx.ProjectID,
		SessionID: ctx.SessionID,
		Type:      eventType,
		Page:      ctx.Page,
		Referrer:  ctx.Referrer,
		TS:        ctx.Time.UnixMilli(),
	}
	for k, v := range extras {
		if coreFields[k] {
			continue
		}
		if r.extras == nil {
			r.extras = make(Extras, len(extras))
		}
		r.extras[k] = v
	}
	return r
}

// Extra returns a type-specific field.
func (r Record) Extra(key string) (any, bool) {
	v, ok := r.extras[key]
	return v, ok
}

// MarshalJSON flattens extras next to the core fields, the shape the
// collection endpoint expects:
//
//	{"projectId":"p","sessionId":"s","type":"scroll","page":"/","referrer":"","ts":1,"percent":50}
func (r Record) MarshalJSON() ([]byte, error) {
	type core Record
	base, err := json.Marshal(core(r))
	if err != nil {
		return nil, err
	}
	if len(r.extras) == 0 {
		return base, nil
	}

	extra, err := json.Marshal(map[string]any(r.extras))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s extras: %w", r.Type, err)
	}

	var buf bytes.Buffer
	buf.Grow(len(base) + len(extra))
	buf.Write(base[:len(base)-1])
	buf.WriteByte(',')
	buf.Write(extra[1:])
	return buf.Bytes(), nil
}

// UnmarshalJSON is the inverse of MarshalJSON; unknown keys become extras.
func (r *Record) UnmarshalJSON(data []byte) error {
	type core Record
	var c core
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	*r = Record(c)
	r.extras = nil
	for k, v := range all {
		if coreFields[k] {
			continue
		}
		if r.extras == nil {
			r.extras = make(Extras)
		}
		r.extras[k] = v
	}
	return nil
}

// EncodeBatch serializes records as a JSON array in order.
func EncodeBatch(records []Record) ([]byte, error) {
	payload, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}
	return payload, nil
}

// DecodeBatch parses a payload produced by EncodeBatch.
func DecodeBatch(payload []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch: %w", err)
	}
	return records, nil
}
