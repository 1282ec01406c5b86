package components

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"surveyor/internal/theme"
)

// StatusComponent manages the bottom status bar
type StatusComponent struct {
	wrapper *tview.TextView
	dir     string
	message string
	err     error
}

// NewStatusComponent creates a new status bar component
func NewStatusComponent() *StatusComponent {
	sc := &StatusComponent{wrapper: theme.NewStatusBar()}
	sc.UpdateStatus()
	return sc
}

// GetWrapper returns the status bar TextView
func (sc *StatusComponent) GetWrapper() *tview.TextView {
	return sc.wrapper
}

// SetWatching records the directory being watched; empty means idle.
func (sc *StatusComponent) SetWatching(dir string) {
	sc.dir = dir
	sc.UpdateStatus()
}

// SetMessage shows an informational message and clears any error.
func (sc *StatusComponent) SetMessage(msg string) {
	sc.message = msg
	sc.err = nil
	sc.UpdateStatus()
}

// SetError shows err until the next message.
func (sc *StatusComponent) SetError(err error) {
	sc.err = err
	sc.UpdateStatus()
}

// UpdateStatus updates the status bar display
func (sc *StatusComponent) UpdateStatus() {
	sc.wrapper.SetText(sc.Text())
}

// Text is the status line with color tags.
func (sc *StatusComponent) Text() string {
	colors := theme.Current().StatusColors()

	var b strings.Builder
	b.WriteString(" ")
	if sc.dir != "" {
		fmt.Fprintf(&b, "[%s]Watching[-] %s", colors.WatchingFg.String(), tview.Escape(sc.dir))
	} else {
		fmt.Fprintf(&b, "[%s]No log directory[-] (d to choose)", colors.IdleFg.String())
	}

	switch {
	case sc.err != nil:
		fmt.Fprintf(&b, " | [%s]%s[-]", colors.ErrorFg.String(), tview.Escape(sc.err.Error()))
	case sc.message != "":
		fmt.Fprintf(&b, " | %s", tview.Escape(sc.message))
	}
	return b.String()
}
