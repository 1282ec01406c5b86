package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// EventKind identifies which of the recognized chat lines produced an event.
type EventKind int

const (
	EventNone EventKind = iota
	EventSighting
	EventCollected
	EventZone
)

func (k EventKind) String() string {
	switch k {
	case EventSighting:
		return "sighting"
	case EventCollected:
		return "collected"
	case EventZone:
		return "zone"
	default:
		return "none"
	}
}

// Event is the typed result of parsing one chat line.
type Event struct {
	Kind EventKind

	// Resource is set for sightings and collections.
	Resource string

	// DX and DY are set for sightings: meters east (negative west) and
	// meters south (negative north).
	DX int
	DY int

	// Zone is set for zone changes, already trimmed.
	Zone string
}

var (
	sightingPattern  = regexp.MustCompile(`\[Status\] The (.+) is (\d+)m (east|west) and (\d+)m (north|south)\.`)
	collectedPattern = regexp.MustCompile(`\[Status\] (.+?) collected!`)
	zonePattern      = regexp.MustCompile(`Entering Area: (.+)`)
)

// ParseEvents returns every event found in one line of chat log: a zone
// change first, then a sighting, then a collection. Each pattern is matched
// independently, so one line can carry a zone change and a sighting. Parsing
// never fails: a numeric field that does not fit an int parses as zero.
func ParseEvents(line string) []Event {
	var out []Event

	if m := zonePattern.FindStringSubmatch(line); m != nil {
		out = append(out, Event{Kind: EventZone, Zone: strings.TrimSpace(m[1])})
	}

	if m := sightingPattern.FindStringSubmatch(line); m != nil {
		dx := atoiSafe(m[2])
		if m[3] == "west" {
			dx = -dx
		}
		dy := atoiSafe(m[4])
		if m[5] == "north" {
			dy = -dy
		}
		out = append(out, Event{Kind: EventSighting, Resource: m[1], DX: dx, DY: dy})
	}

	if m := collectedPattern.FindStringSubmatch(line); m != nil {
		out = append(out, Event{Kind: EventCollected, Resource: m[1]})
	}

	return out
}

// ParseLine returns the first event ParseEvents finds. Lines matching no
// pattern yield an event of kind EventNone and ok == false.
func ParseLine(line string) (Event, bool) {
	if evs := ParseEvents(line); len(evs) > 0 {
		return evs[0], true
	}
	return Event{}, false
}

// SplitLines splits decoded log text into lines, dropping the carriage return
// of CRLF endings. A trailing fragment without a newline is kept.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func atoiSafe(s string) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return 0
}
