package components

import (
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"surveyor/internal/api"
	"surveyor/internal/theme"
)

const (
	playerRune = '@'
	routeRune  = '·'
)

// SurveyMap draws the zone as a grid of cells: the player, every survey
// labelled as in the payload, and the route joining them. Its inner rect in
// cells is the map display size.
type SurveyMap struct {
	*tview.Box
	payload  api.RenderPayload
	lastW    int
	lastH    int
	onResize func(width, height int) api.RenderPayload
}

// NewSurveyMap creates the map panel. onResize is called from Draw whenever
// the inner rect changes size and returns the payload for the new size.
func NewSurveyMap(onResize func(width, height int) api.RenderPayload) *SurveyMap {
	box := tview.NewBox()
	box.SetBorder(true).SetTitle(" Map ")
	colors := theme.Current().MapColors()
	box.SetBackgroundColor(colors.Background)
	box.SetBorderColor(colors.Frame)

	return &SurveyMap{Box: box, onResize: onResize}
}

// SetPayload replaces what the map shows. Call on the UI goroutine.
func (sm *SurveyMap) SetPayload(p api.RenderPayload) {
	sm.payload = p
	sm.SetTitle(" " + p.Zone + " ")
}

// Size returns the last drawn inner size in cells.
func (sm *SurveyMap) Size() (int, int) {
	return sm.lastW, sm.lastH
}

func (sm *SurveyMap) Draw(screen tcell.Screen) {
	sm.Box.DrawForSubclass(screen, sm)

	x, y, width, height := sm.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}

	if width != sm.lastW || height != sm.lastH {
		sm.lastW, sm.lastH = width, height
		if sm.onResize != nil {
			sm.payload = sm.onResize(width, height)
		}
	}

	colors := theme.Current().MapColors()
	base := tcell.StyleDefault.Background(colors.Background)

	p := sm.payload
	player := Cell{
		X: int(p.PlayerPos[0] * float64(width-1)),
		Y: int(p.PlayerPos[1] * float64(height-1)),
	}

	// Route first so markers are drawn over it.
	prev := player
	for _, idx := range p.PathIndices {
		if idx < 0 || idx >= len(p.Dots) {
			continue
		}
		next := DotCell(p.Dots[idx], width, height)
		for _, c := range Line(prev, next) {
			screen.SetContent(x+c.X, y+c.Y, routeRune, nil, base.Foreground(colors.Route))
		}
		prev = next
	}

	nextIdx := -1
	if len(p.PathIndices) > 0 {
		nextIdx = p.PathIndices[0]
	}

	for i, dot := range p.Dots {
		style := base.Foreground(colors.Survey)
		switch {
		case dot.Found:
			style = base.Foreground(colors.Found)
		case i == nextIdx:
			style = base.Foreground(colors.Next).Bold(true)
		}

		c := DotCell(dot, width, height)
		col := c.X
		for _, r := range dot.Label {
			if col >= width {
				break
			}
			screen.SetContent(x+col, y+c.Y, r, nil, style)
			col++
		}
	}

	screen.SetContent(x+player.X, y+player.Y, playerRune, nil, base.Foreground(colors.Player).Bold(true))
}

// Cell is a position inside the map's inner rect.
type Cell struct {
	X, Y int
}

// DotCell maps a dot's display coordinates onto a cell of a width x height
// grid.
func DotCell(d api.DotRender, width, height int) Cell {
	return Cell{
		X: clampCell(int(math.Floor(d.X)), width),
		Y: clampCell(int(math.Floor(d.Y)), height),
	}
}

func clampCell(v, n int) int {
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

// Line returns the cells strictly between a and b.
func Line(a, b Cell) []Cell {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}

	var out []Cell
	cur := a
	err := dx + dy
	for cur != b {
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			cur.X += sx
		}
		if e2 <= dx {
			err += dx
			cur.Y += sy
		}
		if cur != b {
			out = append(out, cur)
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
