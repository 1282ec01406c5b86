package tui

import (
	"context"
	"sync"

	"github.com/rivo/tview"

	"surveyor/internal/api"
	"surveyor/internal/events"
	"surveyor/internal/log"
	"surveyor/internal/routemap"
	"surveyor/internal/survey"
	"surveyor/internal/tui/components"
	"surveyor/internal/tui/handlers"
)

// Controller is the control surface the TUI drives.
type Controller interface {
	api.SurveyAPI
	BatchSize() int
	RouteLength() float64
	LogDirectory() string
	Snapshot() (pos [2]float64, zone string, surveys []survey.Survey, order []int)
}

// Options tune the application.
type Options struct {
	ExportPath string
}

// SurveyApp represents the main tview application
type SurveyApp struct {
	app  *tview.Application
	ctl  Controller
	bus  *events.Bus
	opts Options

	pages    *tview.Pages
	mainGrid *tview.Grid

	surveyMap *components.SurveyMap
	info      *components.InfoPanel
	status    *components.StatusComponent

	inputHandler *handlers.InputHandler

	// payload is the last state shown; only touched on the UI goroutine.
	payload api.RenderPayload

	// queue runs f on the UI goroutine. Calls may arrive in any order.
	queue func(f func())

	subsMu sync.Mutex
	subs   map[events.EventType]string
}

// NewApplication creates and configures the tview application
func NewApplication(ctl Controller, bus *events.Bus, opts Options) *SurveyApp {
	sa := &SurveyApp{
		app:     tview.NewApplication(),
		ctl:     ctl,
		bus:     bus,
		opts:    opts,
		info:    components.NewInfoPanel(),
		status:  components.NewStatusComponent(),
		payload: ctl.GetRenderState(),
		subs:    make(map[events.EventType]string),
	}
	sa.queue = func(f func()) {
		go sa.app.QueueUpdateDraw(f)
	}
	sa.surveyMap = components.NewSurveyMap(func(w, h int) api.RenderPayload {
		return sa.ctl.SetMapSize(float64(w), float64(h))
	})

	sa.inputHandler = handlers.NewInputHandler(handlers.Callbacks{
		OnSetMode:    func(m string) { sa.apply(sa.ctl.SetMode(m)) },
		OnBatchDelta: sa.changeBatch,
		OnMove:       sa.move,
		OnCycleZone:  func() { sa.apply(sa.ctl.SetZone(survey.NextZone(sa.payload.Zone))) },
		OnToggle:     func(i int) { sa.apply(sa.ctl.ToggleFound(i)) },
		OnClear:      func() { sa.apply(sa.ctl.ClearSurveys()) },
		OnDirectory:  sa.showDirectoryDialog,
		OnExport:     sa.export,
		OnExit:       sa.exit,
	})

	sa.setupUI()
	sa.app.SetInputCapture(sa.inputHandler.HandleKeyEvent)
	sa.subscribe()
	sa.apply(sa.payload)

	return sa
}

// setupUI configures the user interface layout
func (sa *SurveyApp) setupUI() {
	sa.mainGrid = tview.NewGrid().
		SetRows(0, 1).
		SetColumns(0, 34).
		SetBorders(false)

	sa.mainGrid.AddItem(sa.surveyMap, 0, 0, 1, 1, 0, 0, true)
	sa.mainGrid.AddItem(sa.info.GetView(), 0, 1, 1, 1, 0, 0, false)
	sa.mainGrid.AddItem(sa.status.GetWrapper(), 1, 0, 1, 2, 0, 0, false)

	sa.pages = tview.NewPages()
	sa.pages.AddPage("main", sa.mainGrid, true, true)

	sa.app.SetRoot(sa.pages, true)
}

// subscribe redraws on every notification. Handlers only queue work so the
// ingestion side is never held up by drawing. Queued redraws read the state
// when they run rather than the payload of the event, so whichever runs last
// shows the newest state.
func (sa *SurveyApp) subscribe() {
	sa.subsMu.Lock()
	defer sa.subsMu.Unlock()

	sa.subs[events.StateUpdated] = sa.bus.Subscribe(events.StateUpdated, func(events.Event) {
		sa.queue(sa.refresh)
	})
	sa.subs[events.ZoneChanged] = sa.bus.Subscribe(events.ZoneChanged, func(events.Event) {
		sa.queue(func() {
			sa.refresh()
			sa.status.SetMessage("entered " + sa.payload.Zone)
		})
	})
}

// refresh shows the current state. Must run on the UI goroutine.
func (sa *SurveyApp) refresh() {
	sa.apply(sa.ctl.GetRenderState())
}

func (sa *SurveyApp) unsubscribe() {
	sa.subsMu.Lock()
	defer sa.subsMu.Unlock()
	for et, id := range sa.subs {
		sa.bus.Unsubscribe(et, id)
	}
	sa.subs = make(map[events.EventType]string)
}

// apply shows p. Must run on the UI goroutine.
func (sa *SurveyApp) apply(p api.RenderPayload) {
	sa.payload = p
	sa.surveyMap.SetPayload(p)
	sa.info.Update(p, sa.ctl.BatchSize(), sa.ctl.RouteLength())
	sa.status.SetWatching(sa.ctl.LogDirectory())
}

func (sa *SurveyApp) changeBatch(delta int) {
	sa.apply(sa.ctl.SetBatchSize(sa.ctl.BatchSize() + delta))
}

func (sa *SurveyApp) move(dx, dy float64) {
	pos := sa.payload.PlayerPos
	sa.apply(sa.ctl.SetPlayerPos(pos[0]+dx, pos[1]+dy))
}

func (sa *SurveyApp) showDirectoryDialog() {
	dialog := components.NewDirectoryDialog(sa.ctl.LogDirectory(),
		func(path string) {
			p, err := sa.ctl.SetLogDirectory(path)
			if err != nil {
				log.Warn("log directory rejected", "path", path, "error", err)
				sa.status.SetError(err)
				return
			}
			sa.closeModal()
			sa.apply(p)
			sa.status.SetMessage("watching " + path)
		},
		sa.closeModal,
	)

	sa.inputHandler.SetModalVisible(true)
	sa.pages.AddPage("modal", dialog.GetView(), true, true)
}

// closeModal closes the currently displayed modal
func (sa *SurveyApp) closeModal() {
	sa.inputHandler.SetModalVisible(false)
	sa.pages.RemovePage("modal")
	sa.app.SetFocus(sa.surveyMap)
}

// export renders the route PNG off the UI goroutine.
func (sa *SurveyApp) export() {
	path := sa.opts.ExportPath
	if path == "" {
		path = "route.png"
	}
	pos, zone, surveys, order := sa.ctl.Snapshot()
	sa.status.SetMessage("exporting " + path)

	go func() {
		err := routemap.Export(context.Background(), path, pos, surveys, zone, order)
		sa.app.QueueUpdateDraw(func() {
			if err != nil {
				log.Error("route export failed", "path", path, "error", err)
				sa.status.SetError(err)
				return
			}
			log.Info("route exported", "path", path, "stops", len(order))
			sa.status.SetMessage("exported " + path)
		})
	}()
}

// Run starts the TUI application and blocks until it exits
func (sa *SurveyApp) Run() error {
	defer sa.unsubscribe()
	return sa.app.Run()
}

// Stop ends Run from any goroutine
func (sa *SurveyApp) Stop() {
	sa.app.Stop()
}

// exit shuts down the application
func (sa *SurveyApp) exit() {
	sa.unsubscribe()
	sa.app.Stop()
}
