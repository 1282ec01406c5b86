package routemap

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/png"
	"io"
	"os"
	"sort"

	"github.com/BourgeoisBear/rasterm"
	"github.com/dominikbraun/graph"
	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/mattn/go-sixel"
	xdraw "golang.org/x/image/draw"

	"surveyor/internal/survey"
)

// canvasInches is the width of the longer zone side in the rendered layout.
const canvasInches = 8.0

// Cell size assumed when sizing inline images to a terminal region.
const (
	cellWidthPx  = 10
	cellHeightPx = 20
)

// RenderPNG lays out g with every vertex pinned at its position in the zone
// and renders it to PNG.
func RenderPNG(ctx context.Context, g graph.Graph[string, Node], zone string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer gv.Close()

	gvGraph, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("failed to create graphviz graph: %w", err)
	}
	defer gvGraph.Close()

	gvGraph.SetLayout("neato")
	gvGraph.SetBackgroundColor("black")
	gvGraph.SetDPI(96.0)
	gvGraph.SetOverlap(true)
	gvGraph.SetSplines("false")

	if _, err := gvGraph.Attr(int(cgraph.EDGE), "color", "white"); err != nil {
		return nil, fmt.Errorf("failed to set edge defaults: %w", err)
	}
	if _, err := gvGraph.Attr(int(cgraph.NODE), "style", "filled"); err != nil {
		return nil, fmt.Errorf("failed to set node defaults: %w", err)
	}

	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to get adjacency map: %w", err)
	}

	ids := make([]string, 0, len(adjacency))
	for id := range adjacency {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	zw, zh := survey.Dimensions(zone)
	scale := canvasInches / max(zw, zh)

	gvNodes := make(map[string]*graphviz.Node, len(ids))
	for _, id := range ids {
		v, err := g.Vertex(id)
		if err != nil {
			return nil, err
		}

		node, err := gvGraph.CreateNodeByName(id)
		if err != nil {
			return nil, fmt.Errorf("failed to create node %s: %w", id, err)
		}

		var fill string
		switch {
		case v.Player:
			fill = "yellow"
			node.SetShape("doublecircle")
		case v.Found:
			fill = "gray40"
			node.SetShape("circle")
		default:
			fill = "lightblue"
			node.SetShape("circle")
		}

		node.SetLabel(v.Label)
		node.SetFillColor(fill)
		node.SetFontSize(10.0)
		node.SetFontColor("black")
		// Graphviz puts y up; zone coordinates grow southwards.
		node.SetPos(v.X*scale, (zh-v.Y)*scale)
		node.SetPin(true)

		gvNodes[id] = node
	}

	for _, source := range ids {
		targets := adjacency[source]
		dests := make([]string, 0, len(targets))
		for t := range targets {
			dests = append(dests, t)
		}
		sort.Strings(dests)

		for _, target := range dests {
			e := targets[target]
			edge, err := gvGraph.CreateEdgeByName(source+"-"+target, gvNodes[source], gvNodes[target])
			if err != nil {
				return nil, fmt.Errorf("failed to create edge %s -> %s: %w", source, target, err)
			}
			edge.SetLabel(fmt.Sprintf("%dm", e.Properties.Weight))
			edge.SetFontColor("white")
			edge.SetFontSize(8.0)
			edge.SetArrowSize(0.6)
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, gvGraph, graphviz.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render route: %w", err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("graphviz render produced no PNG output")
	}
	return buf.Bytes(), nil
}

// Export renders the route for the given state and writes it to path.
func Export(ctx context.Context, path string, pos [2]float64, surveys []survey.Survey, zone string, order []int) error {
	g, err := Build(pos, surveys, zone, order)
	if err != nil {
		return err
	}
	data, err := RenderPNG(ctx, g, zone)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Inline writes the PNG as a sixel image fitted into cols x rows terminal
// cells. With dither the image goes through go-sixel's dithering encoder;
// otherwise it is mapped onto the Plan 9 palette and written by rasterm.
func Inline(w io.Writer, data []byte, cols, rows int, dither bool) error {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode PNG: %w", err)
	}

	scaled := fit(img, cols*cellWidthPx, rows*cellHeightPx)

	if dither {
		enc := sixel.NewEncoder(w)
		enc.Dither = true
		return enc.Encode(scaled)
	}

	bounds := scaled.Bounds()
	paletted := image.NewPaletted(bounds, palette.Plan9)
	draw.Draw(paletted, bounds, scaled, bounds.Min, draw.Src)
	return rasterm.SixelWriteImage(w, paletted)
}

// fit scales img to fit within maxW x maxH, keeping its aspect ratio.
func fit(img image.Image, maxW, maxH int) *image.RGBA {
	bounds := img.Bounds()
	if maxW <= 0 || maxH <= 0 || bounds.Dx() == 0 || bounds.Dy() == 0 {
		out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)
		return out
	}

	scale := min(float64(maxW)/float64(bounds.Dx()), float64(maxH)/float64(bounds.Dy()))
	newW := max(int(float64(bounds.Dx())*scale), 1)
	newH := max(int(float64(bounds.Dy())*scale), 1)

	out := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.BiLinear.Scale(out, out.Bounds(), img, bounds, xdraw.Over, nil)
	return out
}
