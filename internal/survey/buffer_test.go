package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sightings(names ...string) []Survey {
	out := make([]Survey, len(names))
	for i, n := range names {
		out[i] = Survey{Resource: n, DX: i}
	}
	return out
}

func TestDedupe(t *testing.T) {
	tests := []struct {
		name     string
		input    []Survey
		expected []string
	}{
		{name: "empty", input: nil, expected: []string{}},
		{name: "no duplicates", input: sightings("A", "B", "C"), expected: []string{"A", "B", "C"}},
		{name: "last occurrence wins", input: sightings("A", "B", "A"), expected: []string{"B", "A"}},
		{name: "all same", input: sightings("A", "A", "A"), expected: []string{"A"}},
		{name: "interleaved", input: sightings("A", "B", "A", "C", "B"), expected: []string{"A", "C", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dedupe(tt.input)
			names := make([]string, 0, len(got))
			for _, s := range got {
				names = append(names, s.Resource)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestDedupe_KeepsLastOffsets(t *testing.T) {
	got := Dedupe(sightings("A", "B", "A"))
	assert.Equal(t, []Survey{{Resource: "B", DX: 1}, {Resource: "A", DX: 2}}, got)
}

func TestBatchBuffer_SlidingWindow(t *testing.T) {
	b := NewBatchBuffer(3)
	input := sightings("A", "B", "C", "D", "E")

	full := false
	for _, s := range input {
		full = b.Push(s)
		assert.LessOrEqual(t, b.Len(), 3)
	}

	assert.True(t, full)
	assert.Equal(t, input[2:], b.Items())
}

func TestBatchBuffer_ReportsFullExactlyAtLimit(t *testing.T) {
	b := NewBatchBuffer(2)
	assert.False(t, b.Push(Survey{Resource: "A"}))
	assert.True(t, b.Push(Survey{Resource: "B"}))
}

func TestBatchBuffer_CommitClears(t *testing.T) {
	b := NewBatchBuffer(3)
	for _, s := range sightings("A", "B", "A") {
		b.Push(s)
	}

	committed := b.Commit()
	assert.Len(t, committed, 2)
	assert.Equal(t, 0, b.Len())
}

func TestBatchBuffer_MinimumLimit(t *testing.T) {
	b := NewBatchBuffer(0)
	assert.Equal(t, 1, b.Limit())

	b.SetLimit(-4)
	assert.Equal(t, 1, b.Limit())
	assert.True(t, b.Push(Survey{Resource: "A"}))
}

func TestBatchBuffer_ShrinkKeepsNewest(t *testing.T) {
	b := NewBatchBuffer(5)
	for _, s := range sightings("A", "B", "C", "D") {
		b.Push(s)
	}

	b.SetLimit(2)
	assert.Equal(t, sightings("A", "B", "C", "D")[2:], b.Items())
}
