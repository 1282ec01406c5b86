package theme

import (
	"github.com/gdamore/tcell/v2"
)

// FieldTheme is the default: muted panels and a high contrast map that
// stays readable next to the game window.
type FieldTheme struct{}

func NewFieldTheme() *FieldTheme {
	return &FieldTheme{}
}

func (t *FieldTheme) Name() string {
	return "field"
}

func (t *FieldTheme) DialogColors() DialogColors {
	return DialogColors{
		Background: tcell.NewHexColor(0x1E2A1E),
		Foreground: tcell.NewHexColor(0xE8E4D8),
		Border:     tcell.NewHexColor(0x8FA37A),
		Title:      tcell.NewHexColor(0xD9C27A),
		ButtonBg:   tcell.NewHexColor(0x8FA37A),
		ButtonFg:   tcell.NewHexColor(0x101810),
		FieldBg:    tcell.NewHexColor(0x101810),
		FieldFg:    tcell.NewHexColor(0xE8E4D8),
	}
}

func (t *FieldTheme) StatusColors() StatusColors {
	return StatusColors{
		Background: tcell.NewHexColor(0x2B3A2B),
		Foreground: tcell.NewHexColor(0xC8C4B8),
		WatchingFg: tcell.NewHexColor(0x9BE27A),
		IdleFg:     tcell.NewHexColor(0xE2C85A),
		ErrorFg:    tcell.NewHexColor(0xFF6E5A),
	}
}

func (t *FieldTheme) PanelColors() PanelColors {
	return PanelColors{
		Background: tcell.NewHexColor(0x141A14),
		Foreground: tcell.NewHexColor(0xC8C4B8),
		Border:     tcell.NewHexColor(0x5C6B50),
		Title:      tcell.NewHexColor(0xD9C27A),
		HeaderFg:   tcell.NewHexColor(0xD9C27A),
	}
}

func (t *FieldTheme) MapColors() MapColors {
	return MapColors{
		Background: tcell.NewHexColor(0x0C100C),
		Frame:      tcell.NewHexColor(0x3A4634),
		Player:     tcell.NewHexColor(0xFFD84A),
		Route:      tcell.NewHexColor(0x4A7A8C),
		Survey:     tcell.NewHexColor(0x7AD0F0),
		Next:       tcell.NewHexColor(0x9BE27A),
		Found:      tcell.NewHexColor(0x5A5A5A),
	}
}

func (t *FieldTheme) BorderStyle() BorderStyle {
	return BorderStyle{
		Color:      tcell.NewHexColor(0x5C6B50),
		TitleColor: tcell.NewHexColor(0xD9C27A),
		Padding:    0,
	}
}
