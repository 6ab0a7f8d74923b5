package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testCtx = Context{
	ProjectID: "proj-1",
	SessionID: "sess-1",
	Page:      "/pricing",
	Referrer:  "https://search.example/",
	Time:      time.UnixMilli(1767225600000),
}

func TestRecordWireShape(t *testing.T) {
	tests := []struct {
		name   string
		typ    Type
		extras Extras
		want   string
	}{
		{
			name: "pageview has only core fields",
			typ:  PageView,
			want: `{"projectId":"proj-1","sessionId":"sess-1","type":"pageview","page":"/pricing","referrer":"https://search.example/","ts":1767225600000}`,
		},
		{
			name:   "scroll carries percent",
			typ:    Scroll,
			extras: ScrollExtras(50),
			want:   `{"projectId":"proj-1","sessionId":"sess-1","type":"scroll","page":"/pricing","referrer":"https://search.example/","ts":1767225600000,"percent":50}`,
		},
		{
			name:   "click with empty id and class sends null",
			typ:    Click,
			extras: ClickExtras("BUTTON", "", ""),
			want:   `{"projectId":"proj-1","sessionId":"sess-1","type":"click","page":"/pricing","referrer":"https://search.example/","ts":1767225600000,"class":null,"id":null,"tag":"BUTTON"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(New(testCtx, tt.typ, tt.extras))
			require.NoError(t, err)
			require.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestExtrasCannotOverrideCoreFields(t *testing.T) {
	r := New(testCtx, Click, Extras{
		"sessionId": "forged",
		"ts":        0,
		"tag":       "A",
	})

	require.Equal(t, "sess-1", r.SessionID)
	_, ok := r.Extra("sessionId")
	require.False(t, ok)

	got, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(got, &decoded))
	require.Equal(t, "sess-1", decoded["sessionId"])
	require.Equal(t, float64(1767225600000), decoded["ts"])
	require.Equal(t, "A", decoded["tag"])
}

func TestRecordIsIsolatedFromCallerExtras(t *testing.T) {
	extras := Extras{"percent": 25}
	r := New(testCtx, Scroll, extras)
	extras["percent"] = 99

	v, ok := r.Extra("percent")
	require.True(t, ok)
	require.Equal(t, 25, v)
}

func TestBatchPreservesOrder(t *testing.T) {
	records := []Record{
		New(testCtx, PageView, nil),
		New(testCtx, Click, ClickExtras("A", "nav", "link primary")),
		New(testCtx, Scroll, ScrollExtras(25)),
	}

	payload, err := EncodeBatch(records)
	require.NoError(t, err)
	require.Equal(t, byte('['), payload[0])

	decoded, err := DecodeBatch(payload)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	require.Equal(t, PageView, decoded[0].Type)
	require.Equal(t, Click, decoded[1].Type)
	require.Equal(t, Scroll, decoded[2].Type)

	id, _ := decoded[1].Extra("id")
	require.Equal(t, "nav", id)
	percent, _ := decoded[2].Extra("percent")
	require.Equal(t, float64(25), percent)
}

func TestEncodeBatchRejectsUnencodableExtras(t *testing.T) {
	r := New(testCtx, "custom", Extras{"bad": make(chan int)})
	_, err := EncodeBatch([]Record{r})
	require.Error(t, err)
}
