package handlers

import (
	"github.com/gdamore/tcell/v2"

	"surveyor/internal/log"
)

// Player movement per arrow press, as a fraction of the zone.
const (
	StepSmall = 0.01
	StepLarge = 0.05
)

// Callbacks are what the keys drive. Nil callbacks are skipped.
type Callbacks struct {
	OnSetMode    func(mode string)
	OnBatchDelta func(delta int)
	OnMove       func(dx, dy float64)
	OnCycleZone  func()
	OnToggle     func(index int)
	OnClear      func()
	OnDirectory  func()
	OnExport     func()
	OnExit       func()
}

// InputHandler manages input handling for the application
type InputHandler struct {
	cb           Callbacks
	modalVisible bool
}

// NewInputHandler creates a new input handler
func NewInputHandler(cb Callbacks) *InputHandler {
	return &InputHandler{cb: cb}
}

// SetModalVisible sets the modal visibility state. While a modal is open
// every key goes to it.
func (ih *InputHandler) SetModalVisible(visible bool) {
	ih.modalVisible = visible
}

// HandleKeyEvent is installed as the application's input capture. It
// returns nil for keys it consumed.
func (ih *InputHandler) HandleKeyEvent(event *tcell.EventKey) *tcell.EventKey {
	if ih.modalVisible {
		return event
	}

	step := StepSmall
	if event.Modifiers()&tcell.ModShift != 0 {
		step = StepLarge
	}

	switch event.Key() {
	case tcell.KeyUp:
		call2(ih.cb.OnMove, 0, -step)
		return nil
	case tcell.KeyDown:
		call2(ih.cb.OnMove, 0, step)
		return nil
	case tcell.KeyLeft:
		call2(ih.cb.OnMove, -step, 0)
		return nil
	case tcell.KeyRight:
		call2(ih.cb.OnMove, step, 0)
		return nil
	case tcell.KeyCtrlC:
		call(ih.cb.OnExit)
		return nil
	case tcell.KeyRune:
		return ih.handleRune(event)
	}

	return event
}

func (ih *InputHandler) handleRune(event *tcell.EventKey) *tcell.EventKey {
	r := event.Rune()
	log.Debug("key", "rune", string(r))

	switch r {
	case 'r', 'R':
		if ih.cb.OnSetMode != nil {
			ih.cb.OnSetMode("record")
		}
	case 'f', 'F':
		if ih.cb.OnSetMode != nil {
			ih.cb.OnSetMode("find")
		}
	case '+', '=':
		if ih.cb.OnBatchDelta != nil {
			ih.cb.OnBatchDelta(1)
		}
	case '-', '_':
		if ih.cb.OnBatchDelta != nil {
			ih.cb.OnBatchDelta(-1)
		}
	case 'z', 'Z':
		call(ih.cb.OnCycleZone)
	case 'c', 'C':
		call(ih.cb.OnClear)
	case 'd', 'D':
		call(ih.cb.OnDirectory)
	case 'e', 'E':
		call(ih.cb.OnExport)
	case 'q', 'Q':
		call(ih.cb.OnExit)
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if ih.cb.OnToggle != nil {
			ih.cb.OnToggle(int(r - '1'))
		}
	default:
		return event
	}
	return nil
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

func call2(fn func(float64, float64), a, b float64) {
	if fn != nil {
		fn(a, b)
	}
}
