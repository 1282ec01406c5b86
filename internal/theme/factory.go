package theme

import (
	"github.com/rivo/tview"
)

// ThemedComponents provides convenience factory functions for creating themed components
// while still allowing manual styling using theme properties
type ThemedComponents struct {
	theme Theme
}

// NewThemedComponents creates a new themed components factory
func NewThemedComponents(theme Theme) *ThemedComponents {
	return &ThemedComponents{theme: theme}
}

// NewFlex creates a new flex with the panel background
func (tc *ThemedComponents) NewFlex() *tview.Flex {
	flex := tview.NewFlex()
	flex.SetBackgroundColor(tc.theme.PanelColors().Background)
	return flex
}

// NewStatusBar creates a new text view styled for status bars
func (tc *ThemedComponents) NewStatusBar() *tview.TextView {
	textView := tview.NewTextView()
	colors := tc.theme.StatusColors()

	textView.SetBackgroundColor(colors.Background)
	textView.SetTextColor(colors.Foreground)
	textView.SetDynamicColors(true)
	textView.SetWrap(false)

	return textView
}

// NewPanelView creates a new text view styled for side panels
func (tc *ThemedComponents) NewPanelView() *tview.TextView {
	textView := tview.NewTextView()
	colors := tc.theme.PanelColors()
	border := tc.theme.BorderStyle()

	textView.SetBackgroundColor(colors.Background)
	textView.SetTextColor(colors.Foreground)
	textView.SetBorderColor(colors.Border)
	textView.SetTitleColor(colors.Title)
	textView.SetBorder(true)
	textView.SetBorderPadding(border.Padding, border.Padding, border.Padding+1, border.Padding+1)
	textView.SetDynamicColors(true)

	return textView
}

// NewForm creates a new form with theme applied
func (tc *ThemedComponents) NewForm() *tview.Form {
	form := tview.NewForm()
	colors := tc.theme.DialogColors()

	form.SetBackgroundColor(colors.Background)
	form.SetFieldBackgroundColor(colors.FieldBg)
	form.SetFieldTextColor(colors.FieldFg)
	form.SetLabelColor(colors.Foreground)
	form.SetButtonBackgroundColor(colors.ButtonBg)
	form.SetButtonTextColor(colors.ButtonFg)
	form.SetBorderColor(colors.Border)
	form.SetTitleColor(colors.Title)
	form.SetBorder(true)

	return form
}

// Global factory instance using current theme
var defaultFactory = &ThemedComponents{}

// updateDefaultFactory updates the global factory with current theme
func updateDefaultFactory() {
	defaultFactory.theme = defaultThemeManager.Current()
}

// Convenience functions using global theme
func NewFlex() *tview.Flex {
	updateDefaultFactory()
	return defaultFactory.NewFlex()
}

func NewStatusBar() *tview.TextView {
	updateDefaultFactory()
	return defaultFactory.NewStatusBar()
}

func NewPanelView() *tview.TextView {
	updateDefaultFactory()
	return defaultFactory.NewPanelView()
}

func NewForm() *tview.Form {
	updateDefaultFactory()
	return defaultFactory.NewForm()
}
