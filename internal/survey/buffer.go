package survey

// BatchBuffer accumulates raw sightings while recording. It keeps at most
// limit entries, dropping the oldest when a push overflows it.
type BatchBuffer struct {
	items []Survey
	limit int
}

// NewBatchBuffer creates a buffer holding at most limit sightings (minimum 1).
func NewBatchBuffer(limit int) *BatchBuffer {
	return &BatchBuffer{limit: max(limit, 1)}
}

// Push appends a sighting and trims the buffer to the most recent limit entries.
// It reports whether the buffer is now exactly full.
func (b *BatchBuffer) Push(s Survey) bool {
	b.items = append(b.items, s)
	if excess := len(b.items) - b.limit; excess > 0 {
		b.items = append(b.items[:0:0], b.items[excess:]...)
	}
	return len(b.items) == b.limit
}

// SetLimit changes the capacity, dropping the oldest entries if the buffer
// now holds more than the new limit. Shrinking never commits a batch; only
// Push can report a full buffer.
func (b *BatchBuffer) SetLimit(limit int) {
	b.limit = max(limit, 1)
	if excess := len(b.items) - b.limit; excess > 0 {
		b.items = append(b.items[:0:0], b.items[excess:]...)
	}
}

func (b *BatchBuffer) Limit() int { return b.limit }

func (b *BatchBuffer) Len() int { return len(b.items) }

// Items returns a copy of the buffered sightings in arrival order.
func (b *BatchBuffer) Items() []Survey {
	out := make([]Survey, len(b.items))
	copy(out, b.items)
	return out
}

// Commit returns the deduplicated contents and empties the buffer.
func (b *BatchBuffer) Commit() []Survey {
	out := Dedupe(b.items)
	b.Clear()
	return out
}

func (b *BatchBuffer) Clear() {
	b.items = nil
}

// Dedupe keeps, for each resource name, only its last occurrence. Survivors
// stay in ascending index order, so [A, B, A] becomes [B, A].
func Dedupe(surveys []Survey) []Survey {
	last := make(map[string]int, len(surveys))
	for i, s := range surveys {
		last[s.Resource] = i
	}
	out := make([]Survey, 0, len(last))
	for i, s := range surveys {
		if last[s.Resource] == i {
			out = append(out, s)
		}
	}
	return out
}
