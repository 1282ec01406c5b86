package game

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"surveyor/internal/api"
	"surveyor/internal/events"
	"surveyor/internal/log"
	"surveyor/internal/survey"
	"surveyor/internal/tailer"
)

// ErrNotDirectory is returned by SetLogDirectory for a path that is not an
// existing directory.
var ErrNotDirectory = errors.New("not a valid directory")

// Manager owns the survey state. Control operations and the ingestion
// engine both go through its lock.
type Manager struct {
	mu    sync.Mutex
	state *State
	bus   *events.Bus
	opts  tailer.Options
	// seq numbers announced payloads in the order they were taken.
	seq uint64

	engineMu sync.Mutex
	engine   *tailer.Engine
}

var (
	_ api.SurveyAPI = (*Manager)(nil)
	_ tailer.Store  = (*Manager)(nil)
)

// NewManager wraps state. bus may be nil when nobody listens.
func NewManager(state *State, bus *events.Bus, opts tailer.Options) *Manager {
	if state == nil {
		state = NewState()
	}
	return &Manager{state: state, bus: bus, opts: opts}
}

// GetRenderState returns the current payload.
func (m *Manager) GetRenderState() api.RenderPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Project()
}

func (m *Manager) SetMode(mode string) api.RenderPayload {
	return m.update(func(s *State) {
		s.SetMode(survey.ParseMode(mode))
	})
}

func (m *Manager) SetBatchSize(n int) api.RenderPayload {
	return m.update(func(s *State) {
		s.SetBatchSize(n)
	})
}

func (m *Manager) SetPlayerPos(x, y float64) api.RenderPayload {
	return m.update(func(s *State) {
		s.SetPlayerPos(x, y)
	})
}

func (m *Manager) SetMapSize(width, height float64) api.RenderPayload {
	return m.update(func(s *State) {
		s.SetMapSize(width, height)
	})
}

func (m *Manager) SetZone(zone string) api.RenderPayload {
	if _, known := survey.LookupZone(zone); !known {
		if hint, ok := survey.SuggestZone(zone); ok {
			log.Warn("unknown zone, using default dimensions", "zone", zone, "closest", hint)
		}
	}
	return m.update(func(s *State) {
		s.SetZone(zone)
	})
}

func (m *Manager) ToggleFound(index int) api.RenderPayload {
	return m.update(func(s *State) {
		s.ToggleFound(index)
	})
}

func (m *Manager) ClearSurveys() api.RenderPayload {
	return m.update(func(s *State) {
		s.Clear()
	})
}

// BatchSize returns the current batch size.
func (m *Manager) BatchSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.BatchSize()
}

// RouteLength is the length in meters of the current route from the player.
func (m *Manager) RouteLength() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.RouteLength()
}

// Snapshot returns a copy of the committed surveys with the player position
// and zone they are measured against.
func (m *Manager) Snapshot() (pos [2]float64, zone string, surveys []survey.Survey, order []int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	return s.PlayerPos, s.Zone, append([]survey.Survey(nil), s.Surveys...), append([]int{}, s.PathOrder...)
}

// update applies fn under the lock and announces the new payload.
func (m *Manager) update(fn func(s *State)) api.RenderPayload {
	m.mu.Lock()
	fn(m.state)
	payload := m.state.Project()
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	m.fire(events.Event{
		Type:   events.StateUpdated,
		Data:   events.StateUpdate{Seq: seq, Payload: payload},
		Source: "control",
	})
	return payload
}

func (m *Manager) fire(ev events.Event) {
	if m.bus != nil {
		m.bus.Fire(ev)
	}
}

// SetLogDirectory points ingestion at path. The offset restarts at zero and
// the previous watch is replaced. An invalid path changes nothing.
func (m *Manager) SetLogDirectory(path string) (api.RenderPayload, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return m.GetRenderState(), fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}

	m.mu.Lock()
	m.state.LogDirectory = path
	m.state.Offset = 0
	m.mu.Unlock()

	m.engineMu.Lock()
	if m.engine != nil {
		if err := m.engine.Close(); err != nil {
			log.Debug("closing previous watch", "dir", m.engine.Dir(), "error", err)
		}
		m.engine = nil
	}
	engine, err := tailer.Start(path, m, m.bus, m.opts)
	if err == nil {
		m.engine = engine
	}
	m.engineMu.Unlock()

	if err != nil {
		return m.GetRenderState(), fmt.Errorf("start watching %s: %w", path, err)
	}
	return m.GetRenderState(), nil
}

// LogDirectory returns the configured directory, empty when unset.
func (m *Manager) LogDirectory() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.LogDirectory
}

// Cursor implements tailer.Store.
func (m *Manager) Cursor() (string, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.LogDirectory, m.state.Offset
}

// Ingest implements tailer.Store. The offset advances to `to` even when no
// line changed anything.
func (m *Manager) Ingest(dir string, from, to int64, lines []string) (tailer.Report, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.state
	if dir != s.LogDirectory || from != s.Offset {
		return tailer.Report{}, false
	}

	out := s.Ingest(lines)
	s.Offset = to

	report := tailer.Report{
		ZoneChanged:  out.ZoneChanged,
		StateChanged: out.StateChanged,
		Zone:         s.Zone,
		Committed:    out.Committed,
	}
	if out.StateChanged {
		m.seq++
		report.Seq = m.seq
		report.Payload = s.Project()
	}
	for _, c := range out.Collected {
		report.Collected = append(report.Collected, events.Collection{Zone: s.Zone, Index: c.Index, Survey: c.Survey})
	}
	return report, true
}

// Close stops the current watch, if any.
func (m *Manager) Close() error {
	m.engineMu.Lock()
	defer m.engineMu.Unlock()
	if m.engine == nil {
		return nil
	}
	err := m.engine.Close()
	m.engine = nil
	return err
}
