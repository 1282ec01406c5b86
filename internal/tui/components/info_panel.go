package components

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"surveyor/internal/api"
	"surveyor/internal/theme"
)

// InfoPanel shows the zone, mode, progress and resource counts.
type InfoPanel struct {
	view *tview.TextView
}

func NewInfoPanel() *InfoPanel {
	view := theme.NewPanelView()
	view.SetTitle(" Survey ")
	return &InfoPanel{view: view}
}

func (ip *InfoPanel) GetView() *tview.TextView {
	return ip.view
}

// Update redraws the panel. routeLength is in meters.
func (ip *InfoPanel) Update(p api.RenderPayload, batchSize int, routeLength float64) {
	ip.view.SetText(FormatInfo(p, batchSize, routeLength))
}

// FormatInfo renders the panel text with tview color tags.
func FormatInfo(p api.RenderPayload, batchSize int, routeLength float64) string {
	header := theme.Current().PanelColors().HeaderFg.String()

	var b strings.Builder
	fmt.Fprintf(&b, "[%s]Zone[-]  %s\n", header, tview.Escape(p.Zone))
	fmt.Fprintf(&b, "[%s]Mode[-]  %s\n", header, p.Mode)
	fmt.Fprintf(&b, "[%s]Batch[-] %d\n", header, batchSize)
	fmt.Fprintf(&b, "[%s]Found[-] %s\n", header, p.Summary)
	if len(p.PathIndices) > 0 {
		fmt.Fprintf(&b, "[%s]Route[-] %d stops, %.0fm\n", header, len(p.PathIndices), routeLength)
	}

	if len(p.Dots) > 0 {
		fmt.Fprintf(&b, "\n[%s]Surveys[-]\n", header)
		for i, d := range p.Dots {
			fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, tview.Escape(d.Resource), d.Label)
		}
	}

	if len(p.Resources) > 0 {
		fmt.Fprintf(&b, "\n[%s]Resources[-]\n", header)
		for _, r := range p.Resources {
			fmt.Fprintf(&b, "%-14s %d\n", tview.Escape(r.Name), r.Count)
		}
	}

	b.WriteString("\n[::d]r/f mode  +/- batch  arrows move\nz zone  1-9 toggle  c clear\nd dir  e export  q quit[::-]")
	return b.String()
}
