// Package routemap draws the current route as an image: a graph of the
// player and the surveys, laid out at their real positions in the zone.
package routemap

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dominikbraun/graph"

	"surveyor/internal/game"
	"surveyor/internal/survey"
)

// PlayerID is the vertex id of the player.
const PlayerID = "player"

// Node is one vertex of the route graph, positioned in meters.
type Node struct {
	ID     string
	Label  string
	X, Y   float64
	Found  bool
	Player bool
	Index  int
}

func nodeHash(n Node) string { return n.ID }

func surveyID(index int) string { return "s" + strconv.Itoa(index) }

// Build returns the route graph. The player and every survey are vertices;
// consecutive stops in order are joined by edges weighted with their
// distance in whole meters. Found surveys and surveys missing from order
// have no edges.
func Build(pos [2]float64, surveys []survey.Survey, zone string, order []int) (graph.Graph[string, Node], error) {
	g := graph.New(nodeHash, graph.Directed(), graph.Weighted())

	w, h := survey.Dimensions(zone)
	player := survey.PlayerMeters(pos, w, h)

	if err := g.AddVertex(Node{ID: PlayerID, Label: "@", X: player.X, Y: player.Y, Player: true, Index: -1}); err != nil {
		return nil, fmt.Errorf("failed to add player vertex: %w", err)
	}

	routePos := make(map[int]int, len(order))
	for i, idx := range order {
		routePos[idx] = i
	}

	for i, s := range surveys {
		p := survey.Locate(player, s, w, h)
		label := strconv.Itoa(i + 1)
		if s.Found {
			label = game.FoundMarker
		} else if rp, ok := routePos[i]; ok {
			label = strconv.Itoa(rp + 1)
		}
		n := Node{ID: surveyID(i), Label: label, X: p.X, Y: p.Y, Found: s.Found, Index: i}
		if err := g.AddVertex(n); err != nil {
			return nil, fmt.Errorf("failed to add survey vertex %d: %w", i, err)
		}
	}

	prev := Node{ID: PlayerID, X: player.X, Y: player.Y}
	seen := make(map[int]bool, len(order))
	for _, idx := range order {
		if idx < 0 || idx >= len(surveys) || surveys[idx].Found || seen[idx] {
			continue
		}
		seen[idx] = true
		next, err := g.Vertex(surveyID(idx))
		if err != nil {
			return nil, err
		}
		dist := math.Hypot(next.X-prev.X, next.Y-prev.Y)
		if err := g.AddEdge(prev.ID, next.ID, graph.EdgeWeight(int(math.Round(dist)))); err != nil {
			return nil, fmt.Errorf("failed to add edge %s -> %s: %w", prev.ID, next.ID, err)
		}
		prev = next
	}

	return g, nil
}

// TotalWeight sums the edge weights of g.
func TotalWeight(g graph.Graph[string, Node]) (int, error) {
	edges, err := g.Edges()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, e := range edges {
		total += e.Properties.Weight
	}
	return total, nil
}
