package theme

import (
	"github.com/gdamore/tcell/v2"
)

// Standard ANSI 16-color palette using fixed hex values, so the map looks
// the same whatever the terminal's own scheme is.
var (
	DOSBlack     = tcell.NewHexColor(0x000000)
	DOSRed       = tcell.NewHexColor(0x800000)
	DOSGreen     = tcell.NewHexColor(0x008000)
	DOSBrown     = tcell.NewHexColor(0x808000)
	DOSBlue      = tcell.NewHexColor(0x000080)
	DOSCyan      = tcell.NewHexColor(0x008080)
	DOSLightGray = tcell.NewHexColor(0xC0C0C0)

	DOSDarkGray   = tcell.NewHexColor(0x808080)
	DOSLightRed   = tcell.NewHexColor(0xFF0000)
	DOSLightGreen = tcell.NewHexColor(0x00FF00)
	DOSYellow     = tcell.NewHexColor(0xFFFF00)
	DOSLightCyan  = tcell.NewHexColor(0x00FFFF)
	DOSWhite      = tcell.NewHexColor(0xFFFFFF)
)

// TelixTheme implements the classic Telix DOS terminal look
type TelixTheme struct{}

func NewTelixTheme() *TelixTheme {
	return &TelixTheme{}
}

func (t *TelixTheme) Name() string {
	return "telix"
}

func (t *TelixTheme) DialogColors() DialogColors {
	return DialogColors{
		Background: DOSBlue,
		Foreground: DOSWhite,
		Border:     DOSWhite,
		Title:      DOSWhite,
		ButtonBg:   DOSLightGray,
		ButtonFg:   DOSBlack,
		FieldBg:    tcell.NewHexColor(0x000040),
		FieldFg:    DOSWhite,
	}
}

func (t *TelixTheme) StatusColors() StatusColors {
	return StatusColors{
		Background: DOSBlue,
		Foreground: DOSLightGray,
		WatchingFg: DOSLightGreen,
		IdleFg:     DOSYellow,
		ErrorFg:    DOSLightRed,
	}
}

func (t *TelixTheme) PanelColors() PanelColors {
	return PanelColors{
		Background: DOSBlack,
		Foreground: DOSLightGray,
		Border:     DOSLightGray,
		Title:      DOSLightGray,
		HeaderFg:   DOSYellow,
	}
}

func (t *TelixTheme) MapColors() MapColors {
	return MapColors{
		Background: DOSBlack,
		Frame:      DOSDarkGray,
		Player:     DOSYellow,
		Route:      DOSCyan,
		Survey:     DOSLightCyan,
		Next:       DOSLightGreen,
		Found:      DOSDarkGray,
	}
}

func (t *TelixTheme) BorderStyle() BorderStyle {
	return BorderStyle{
		Color:      DOSLightGray,
		TitleColor: DOSLightGray,
		Padding:    0,
	}
}
