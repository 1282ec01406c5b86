package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Event
		ok       bool
	}{
		{
			name:     "sighting east south",
			input:    "[Status] The Quartz is 120m east and 45m south.",
			expected: Event{Kind: EventSighting, Resource: "Quartz", DX: 120, DY: 45},
			ok:       true,
		},
		{
			name:     "sighting west north",
			input:    "[Status] The Rough Amethyst is 7m west and 310m north.",
			expected: Event{Kind: EventSighting, Resource: "Rough Amethyst", DX: -7, DY: -310},
			ok:       true,
		},
		{
			name:     "sighting with timestamp prefix",
			input:    "26-03-14 18:22:01\t[Status] The Salt is 0m east and 0m north.",
			expected: Event{Kind: EventSighting, Resource: "Salt", DX: 0, DY: 0},
			ok:       true,
		},
		{
			name:     "overflowing number parses as zero",
			input:    "[Status] The Salt is 99999999999999999999m west and 3m south.",
			expected: Event{Kind: EventSighting, Resource: "Salt", DX: 0, DY: 3},
			ok:       true,
		},
		{
			name:     "collection",
			input:    "[Status] Quartz collected!",
			expected: Event{Kind: EventCollected, Resource: "Quartz"},
			ok:       true,
		},
		{
			name:     "collection takes shortest name",
			input:    "[Status] Fluorite x2 collected! collected!",
			expected: Event{Kind: EventCollected, Resource: "Fluorite x2"},
			ok:       true,
		},
		{
			name:     "zone change is trimmed",
			input:    "**************************** Entering Area: Serbule Hills   ",
			expected: Event{Kind: EventZone, Zone: "Serbule Hills"},
			ok:       true,
		},
		{
			name:  "unrelated status line",
			input: "[Status] You are too far away.",
			ok:    false,
		},
		{
			name:  "sighting missing period",
			input: "[Status] The Salt is 3m east and 4m north",
			ok:    false,
		},
		{
			name:  "empty line",
			input: "",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLine(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "lf", input: "a\nb\n", expected: []string{"a", "b"}},
		{name: "crlf", input: "a\r\nb\r\n", expected: []string{"a", "b"}},
		{name: "partial tail", input: "a\nb", expected: []string{"a", "b"}},
		{name: "blank lines kept", input: "a\n\nb\n", expected: []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitLines(tt.input))
		})
	}
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "sighting", EventSighting.String())
	assert.Equal(t, "collected", EventCollected.String())
	assert.Equal(t, "zone", EventZone.String())
	assert.Equal(t, "none", EventNone.String())
}

func TestParseEvents(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kinds []EventKind
	}{
		{"none", "[Status] You are too far away.", nil},
		{"single sighting", "[Status] The Salt is 3m east and 4m north.", []EventKind{EventSighting}},
		{
			"zone and sighting",
			"Entering Area: Eltibule [Status] The Quartz is 10m east and 5m south.",
			[]EventKind{EventZone, EventSighting},
		},
		{
			"sighting and collection",
			"[Status] The Salt is 3m east and 4m north. [Status] Salt collected!",
			[]EventKind{EventSighting, EventCollected},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var kinds []EventKind
			for _, ev := range ParseEvents(tt.input) {
				kinds = append(kinds, ev.Kind)
			}
			assert.Equal(t, tt.kinds, kinds)
		})
	}
}

func TestParseEvents_ZoneKeepsRestOfLine(t *testing.T) {
	evs := ParseEvents("Entering Area: Eltibule [Status] The Quartz is 10m east and 5m south.")
	assert.Equal(t, []Event{
		{Kind: EventZone, Zone: "Eltibule [Status] The Quartz is 10m east and 5m south."},
		{Kind: EventSighting, Resource: "Quartz", DX: 10, DY: 5},
	}, evs)
}
