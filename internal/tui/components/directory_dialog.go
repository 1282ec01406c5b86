package components

import (
	"github.com/rivo/tview"

	"surveyor/internal/theme"
)

// DirectoryDialog asks for the chat log directory.
type DirectoryDialog struct {
	form     *tview.Form
	onSubmit func(path string)
	onCancel func()
}

// NewDirectoryDialog creates the dialog prefilled with current.
func NewDirectoryDialog(current string, onSubmit func(path string), onCancel func()) *DirectoryDialog {
	dd := &DirectoryDialog{
		form:     theme.NewForm(),
		onSubmit: onSubmit,
		onCancel: onCancel,
	}

	dd.form.SetTitle(" Chat log directory ")
	dd.form.AddInputField("Directory", current, 50, nil, nil)
	dd.form.AddButton("Watch", dd.submit)
	dd.form.AddButton("Cancel", dd.cancel)
	dd.form.SetCancelFunc(dd.cancel)

	return dd
}

func (dd *DirectoryDialog) submit() {
	field, ok := dd.form.GetFormItemByLabel("Directory").(*tview.InputField)
	if !ok {
		return
	}
	if dd.onSubmit != nil {
		dd.onSubmit(field.GetText())
	}
}

func (dd *DirectoryDialog) cancel() {
	if dd.onCancel != nil {
		dd.onCancel()
	}
}

// GetView returns the dialog centered in a fixed-size frame.
func (dd *DirectoryDialog) GetView() tview.Primitive {
	return theme.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(dd.form, 7, 0, true).
			AddItem(nil, 0, 1, false), 70, 0, true).
		AddItem(nil, 0, 1, false)
}
