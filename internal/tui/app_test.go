package tui

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyor/internal/api"
	"surveyor/internal/events"
	"surveyor/internal/survey"
)

type fakeController struct {
	mu      sync.Mutex
	current api.RenderPayload
}

func (f *fakeController) set(p api.RenderPayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = p
}

func (f *fakeController) GetRenderState() api.RenderPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeController) mutate(fn func(p *api.RenderPayload)) api.RenderPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.current)
	return f.current
}

func (f *fakeController) SetMode(mode string) api.RenderPayload {
	return f.mutate(func(p *api.RenderPayload) { p.Mode = mode })
}
func (f *fakeController) SetBatchSize(int) api.RenderPayload { return f.GetRenderState() }
func (f *fakeController) SetPlayerPos(x, y float64) api.RenderPayload {
	return f.mutate(func(p *api.RenderPayload) { p.PlayerPos = [2]float64{x, y} })
}
func (f *fakeController) SetMapSize(float64, float64) api.RenderPayload { return f.GetRenderState() }
func (f *fakeController) SetZone(zone string) api.RenderPayload {
	return f.mutate(func(p *api.RenderPayload) { p.Zone = zone })
}
func (f *fakeController) ToggleFound(int) api.RenderPayload { return f.GetRenderState() }
func (f *fakeController) ClearSurveys() api.RenderPayload   { return f.GetRenderState() }
func (f *fakeController) SetLogDirectory(string) (api.RenderPayload, error) {
	return f.GetRenderState(), nil
}
func (f *fakeController) BatchSize() int       { return 5 }
func (f *fakeController) RouteLength() float64 { return 0 }
func (f *fakeController) LogDirectory() string { return "" }
func (f *fakeController) Snapshot() ([2]float64, string, []survey.Survey, []int) {
	p := f.GetRenderState()
	return p.PlayerPos, p.Zone, nil, nil
}

func payload(summary string) api.RenderPayload {
	return api.RenderPayload{
		Mode:        "find",
		Zone:        "Serbule",
		PlayerPos:   [2]float64{0.5, 0.5},
		Dots:        []api.DotRender{},
		PathIndices: []int{},
		Summary:     summary,
		Resources:   []api.ResourceCount{},
	}
}

// newTestApp returns an app whose queued UI work is collected instead of run.
func newTestApp(t *testing.T, ctl *fakeController) (*SurveyApp, *events.Bus, func() []func()) {
	t.Helper()
	bus := events.NewBus()
	sa := NewApplication(ctl, bus, Options{})
	t.Cleanup(sa.unsubscribe)

	var (
		mu     sync.Mutex
		queued []func()
	)
	sa.queue = func(f func()) {
		mu.Lock()
		defer mu.Unlock()
		queued = append(queued, f)
	}
	return sa, bus, func() []func() {
		mu.Lock()
		defer mu.Unlock()
		out := queued
		queued = nil
		return out
	}
}

func fireState(bus *events.Bus, p api.RenderPayload) {
	bus.Fire(events.Event{
		Type:   events.StateUpdated,
		Data:   events.StateUpdate{Payload: p},
		Source: "tailer",
	})
}

func TestStateUpdatesShowNewestStateInAnyOrder(t *testing.T) {
	tests := []struct {
		name  string
		order func(fs []func()) []func()
	}{
		{"in order", func(fs []func()) []func() { return fs }},
		{"reversed", func(fs []func()) []func() {
			out := make([]func(), len(fs))
			for i, f := range fs {
				out[len(fs)-1-i] = f
			}
			return out
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := &fakeController{current: payload("0/2 found")}
			sa, bus, drain := newTestApp(t, ctl)

			ctl.set(payload("1/2 found"))
			fireState(bus, payload("1/2 found"))
			ctl.set(payload("2/2 found"))
			fireState(bus, payload("2/2 found"))

			queued := drain()
			require.Len(t, queued, 2)
			for _, f := range tt.order(queued) {
				f()
			}
			assert.Equal(t, "2/2 found", sa.payload.Summary)
		})
	}
}

func TestLateStateUpdateDoesNotUndoKeyPress(t *testing.T) {
	ctl := &fakeController{current: payload("0/1 found")}
	sa, bus, drain := newTestApp(t, ctl)

	fireState(bus, payload("0/1 found"))
	sa.apply(ctl.SetZone("Ilmari"))

	for _, f := range drain() {
		f()
	}
	assert.Equal(t, "Ilmari", sa.payload.Zone)
}

func TestZoneChangedRefreshesAndReports(t *testing.T) {
	ctl := &fakeController{current: payload("0/0 found")}
	sa, bus, drain := newTestApp(t, ctl)

	ctl.SetZone("Eltibule")
	bus.Fire(events.Event{Type: events.ZoneChanged, Source: "tailer"})
	for _, f := range drain() {
		f()
	}

	assert.Equal(t, "Eltibule", sa.payload.Zone)
	assert.Contains(t, sa.status.Text(), "entered Eltibule")
}

func TestUnsubscribeDetachesFromBus(t *testing.T) {
	ctl := &fakeController{current: payload("0/0 found")}
	sa, bus, _ := newTestApp(t, ctl)

	assert.Equal(t, 1, bus.SubscriberCount(events.StateUpdated))
	sa.unsubscribe()
	assert.Zero(t, bus.SubscriberCount(events.StateUpdated))
	assert.Zero(t, bus.SubscriberCount(events.ZoneChanged))
}
