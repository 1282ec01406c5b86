package survey

import "strings"

// Mode is the ingestion mode. Record accumulates sightings into the batch
// buffer, Find walks the committed surveys in route order.
type Mode int

const (
	ModeRecord Mode = iota
	ModeFind
)

func (m Mode) String() string {
	switch m {
	case ModeRecord:
		return "record"
	case ModeFind:
		return "find"
	default:
		return "unknown"
	}
}

// ParseMode maps a mode name to a Mode. Anything other than "find" is Record.
func ParseMode(name string) Mode {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "find":
		return ModeFind
	default:
		return ModeRecord
	}
}

// Survey is one resource sighting recorded relative to where it was observed.
// DX is meters east (negative west), DY is meters south (negative north).
type Survey struct {
	Resource string `json:"resource"`
	DX       int    `json:"dx"`
	DY       int    `json:"dy"`
	Found    bool   `json:"found"`
}

// Unvisited returns the indices of surveys that have not been found yet.
func Unvisited(surveys []Survey) []int {
	var out []int
	for i, s := range surveys {
		if !s.Found {
			out = append(out, i)
		}
	}
	return out
}
