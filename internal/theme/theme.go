package theme

import (
	"fmt"
	"sort"

	"github.com/gdamore/tcell/v2"
)

// DialogColors defines color scheme for dialogs and modals
type DialogColors struct {
	Background tcell.Color
	Foreground tcell.Color
	Border     tcell.Color
	Title      tcell.Color
	ButtonBg   tcell.Color
	ButtonFg   tcell.Color
	FieldBg    tcell.Color // Input field background
	FieldFg    tcell.Color // Input field text
}

// StatusColors defines color scheme for the status bar
type StatusColors struct {
	Background tcell.Color
	Foreground tcell.Color
	WatchingFg tcell.Color
	IdleFg     tcell.Color
	ErrorFg    tcell.Color
}

// PanelColors defines color scheme for side panels
type PanelColors struct {
	Background tcell.Color
	Foreground tcell.Color
	Border     tcell.Color
	Title      tcell.Color
	HeaderFg   tcell.Color
}

// MapColors defines how the survey map is drawn
type MapColors struct {
	Background tcell.Color
	Frame      tcell.Color
	Player     tcell.Color
	Route      tcell.Color
	Survey     tcell.Color
	Next       tcell.Color // First unvisited stop on the route
	Found      tcell.Color
}

// BorderStyle defines border styling options
type BorderStyle struct {
	Color      tcell.Color
	TitleColor tcell.Color
	Padding    int
}

// Theme interface defines all theming properties
type Theme interface {
	Name() string

	DialogColors() DialogColors
	StatusColors() StatusColors
	PanelColors() PanelColors
	MapColors() MapColors

	BorderStyle() BorderStyle
}

// ThemeManager manages theme selection and application
type ThemeManager struct {
	currentTheme Theme
	themes       map[string]Theme
}

// NewThemeManager creates a theme manager with the built-in themes
// registered and "field" selected.
func NewThemeManager() *ThemeManager {
	tm := &ThemeManager{
		themes: make(map[string]Theme),
	}

	tm.RegisterTheme(NewFieldTheme())
	tm.RegisterTheme(NewTelixTheme())
	tm.SetTheme("field")

	return tm
}

// RegisterTheme registers a new theme
func (tm *ThemeManager) RegisterTheme(theme Theme) {
	tm.themes[theme.Name()] = theme
}

// SetTheme sets the current theme by name
func (tm *ThemeManager) SetTheme(name string) error {
	if theme, exists := tm.themes[name]; exists {
		tm.currentTheme = theme
		return nil
	}
	return fmt.Errorf("theme '%s' not found", name)
}

// Current returns the current theme
func (tm *ThemeManager) Current() Theme {
	return tm.currentTheme
}

// Available returns the registered theme names, sorted
func (tm *ThemeManager) Available() []string {
	names := make([]string, 0, len(tm.themes))
	for name := range tm.themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Global theme manager instance
var defaultThemeManager = NewThemeManager()

// GetThemeManager returns the global theme manager
func GetThemeManager() *ThemeManager {
	return defaultThemeManager
}

// Current returns the current theme from the global manager
func Current() Theme {
	return defaultThemeManager.Current()
}
