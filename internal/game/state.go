package game

import (
	"surveyor/internal/survey"
	"surveyor/internal/survey/parser"
	"surveyor/internal/survey/route"
)

const (
	defaultBatchSize = 5
	defaultMapSize   = 750.0
)

// State is the single shared record the ingestion engine and the control
// surface both mutate. It is not safe for concurrent use; Manager serializes
// every access behind one lock.
type State struct {
	Mode      survey.Mode
	Zone      string
	Surveys   []survey.Survey
	PlayerPos [2]float64
	MapWidth  float64
	MapHeight float64

	// LogDirectory is empty until a directory is configured.
	LogDirectory string
	// Offset is the byte position already consumed from the newest log file.
	Offset int64

	PathOrder []int
	Buffer    *survey.BatchBuffer
}

// NewState returns the startup state: recording in the default zone with
// the player centered on a 750x750 map and a batch size of 5.
func NewState() *State {
	return &State{
		Mode:      survey.ModeRecord,
		Zone:      survey.DefaultZone,
		PlayerPos: [2]float64{0.5, 0.5},
		MapWidth:  defaultMapSize,
		MapHeight: defaultMapSize,
		PathOrder: []int{},
		Buffer:    survey.NewBatchBuffer(defaultBatchSize),
	}
}

// Collected records one survey marked found by a collection line.
type Collected struct {
	Index  int
	Survey survey.Survey
}

// Outcome summarizes one ingestion pass.
type Outcome struct {
	ZoneChanged  bool
	StateChanged bool

	// Committed is set when the batch buffer filled during the pass.
	Committed []survey.Survey
	Collected []Collected
}

// Ingest applies a batch of log lines in order. Zone lines always update the
// zone. Sightings only count while recording; once the buffer holds exactly
// BatchSize sightings it is committed and the mode switches to Find.
// Collection lines only count in Find mode and consume the first unvisited
// survey in route order. A line is judged by the mode in force when it
// starts, after any zone change it carries. When anything changed in Find
// mode the route is recomputed once, after the last line.
func (s *State) Ingest(lines []string) Outcome {
	var out Outcome

	for _, line := range lines {
		evs := parser.ParseEvents(line)
		if len(evs) == 0 {
			continue
		}

		mode := s.Mode
		for _, ev := range evs {
			switch ev.Kind {
			case parser.EventZone:
				if ev.Zone != s.Zone {
					s.Zone = ev.Zone
					out.ZoneChanged = true
					out.StateChanged = true
				}

			case parser.EventSighting:
				switch mode {
				case survey.ModeRecord:
					full := s.Buffer.Push(survey.Survey{Resource: ev.Resource, DX: ev.DX, DY: ev.DY})
					out.StateChanged = true
					if full {
						s.commitBuffer()
						out.Committed = append([]survey.Survey(nil), s.Surveys...)
					}
				case survey.ModeFind:
				}

			case parser.EventCollected:
				switch mode {
				case survey.ModeFind:
					if idx, ok := s.nextInRoute(); ok {
						s.Surveys[idx].Found = true
						out.StateChanged = true
						out.Collected = append(out.Collected, Collected{Index: idx, Survey: s.Surveys[idx]})
					}
				case survey.ModeRecord:
				}
			}
		}
	}

	if out.StateChanged && s.Mode == survey.ModeFind {
		s.Reroute()
	}
	return out
}

// commitBuffer replaces the committed surveys with the deduplicated buffer,
// routes them and switches to Find mode.
func (s *State) commitBuffer() {
	s.Surveys = s.Buffer.Commit()
	s.Reroute()
	s.Mode = survey.ModeFind
}

// nextInRoute returns the first survey in route order that is not yet found.
// The reported resource name plays no part in the choice.
func (s *State) nextInRoute() (int, bool) {
	for _, idx := range s.PathOrder {
		if idx >= 0 && idx < len(s.Surveys) && !s.Surveys[idx].Found {
			return idx, true
		}
	}
	return 0, false
}

// Reroute recomputes the visiting order for the unvisited surveys.
func (s *State) Reroute() {
	s.PathOrder = route.Plan(s.PlayerPos, s.Surveys, s.Zone)
}

// BatchSize is the number of sightings collected before a batch commits.
func (s *State) BatchSize() int {
	return s.Buffer.Limit()
}

// SetMode switches mode; entering Find recomputes the route.
func (s *State) SetMode(m survey.Mode) {
	s.Mode = m
	switch m {
	case survey.ModeFind:
		s.Reroute()
	case survey.ModeRecord:
	}
}

// SetBatchSize sets the batch size, never below 1.
func (s *State) SetBatchSize(n int) {
	s.Buffer.SetLimit(n)
}

// SetPlayerPos moves the player, clamping both components to [0, 1].
func (s *State) SetPlayerPos(x, y float64) {
	s.PlayerPos = [2]float64{survey.Clamp01(x), survey.Clamp01(y)}
	if s.Mode == survey.ModeFind {
		s.Reroute()
	}
}

// SetMapSize records the display size in pixels, never below 1.
func (s *State) SetMapSize(w, h float64) {
	s.MapWidth = max(w, 1)
	s.MapHeight = max(h, 1)
}

// SetZone changes zone. Committed surveys are kept even though their
// positions were measured in the previous zone.
func (s *State) SetZone(zone string) {
	s.Zone = zone
	if s.Mode == survey.ModeFind {
		s.Reroute()
	}
}

// ToggleFound flips the found flag of one survey and recomputes the route.
// Out of range indices are ignored.
func (s *State) ToggleFound(index int) bool {
	if index < 0 || index >= len(s.Surveys) {
		return false
	}
	s.Surveys[index].Found = !s.Surveys[index].Found
	s.Reroute()
	return true
}

// Clear drops all surveys, the batch buffer and the route, and goes back to
// recording.
func (s *State) Clear() {
	s.Surveys = nil
	s.Buffer.Clear()
	s.PathOrder = []int{}
	s.Mode = survey.ModeRecord
}

// RouteLength is the open-path length of the current route in meters.
func (s *State) RouteLength() float64 {
	return route.Length(s.PlayerPos, s.Surveys, s.Zone, s.PathOrder)
}
