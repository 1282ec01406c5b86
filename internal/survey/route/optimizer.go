// Package route orders unvisited surveys into a short open walk starting at
// the player. It builds a nearest-neighbor tour and improves it with 2-opt.
// The result is a heuristic sized for the tens of surveys a batch holds.
package route

import (
	"surveyor/internal/survey"
)

// improvementEpsilon is the minimum gain for a 2-opt move to be applied.
const improvementEpsilon = 1e-6

// Plan returns the indices of the unvisited surveys in the order the player
// should visit them. The walk starts implicitly at pos, a normalized position
// in the named zone. Found surveys never appear in the result.
func Plan(pos [2]float64, surveys []survey.Survey, zone string) []int {
	unvisited, nodes := layout(pos, surveys, zone)
	switch len(unvisited) {
	case 0:
		return []int{}
	case 1:
		return []int{unvisited[0]}
	}

	dist := distanceMatrix(nodes)
	tour := nearestNeighbor(dist)
	twoOpt(dist, tour)
	return toSurveyIndices(tour, unvisited)
}

// Length returns the length in meters of the open path that starts at the
// player and visits order in sequence. Indices outside surveys are skipped.
func Length(pos [2]float64, surveys []survey.Survey, zone string, order []int) float64 {
	w, h := survey.Dimensions(zone)
	player := survey.PlayerMeters(pos, w, h)
	prev := player
	total := 0.0
	for _, idx := range order {
		if idx < 0 || idx >= len(surveys) {
			continue
		}
		p := survey.Locate(player, surveys[idx], w, h)
		total += prev.Distance(p)
		prev = p
	}
	return total
}

// layout returns the original indices of the unvisited surveys and the node
// positions in meters. Node 0 is the player; node k is unvisited[k-1].
func layout(pos [2]float64, surveys []survey.Survey, zone string) ([]int, []survey.Point) {
	w, h := survey.Dimensions(zone)
	player := survey.PlayerMeters(pos, w, h)

	unvisited := survey.Unvisited(surveys)
	nodes := make([]survey.Point, 0, len(unvisited)+1)
	nodes = append(nodes, player)
	for _, idx := range unvisited {
		nodes = append(nodes, survey.Locate(player, surveys[idx], w, h))
	}
	return unvisited, nodes
}

func distanceMatrix(nodes []survey.Point) [][]float64 {
	n := len(nodes)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := nodes[i].Distance(nodes[j])
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}

// nearestNeighbor builds a tour from node 0 by always stepping to the closest
// node not yet on the tour. Ties go to the lowest node index.
func nearestNeighbor(dist [][]float64) []int {
	n := len(dist)
	visited := make([]bool, n)
	visited[0] = true
	tour := make([]int, 1, n)
	current := 0

	for step := 1; step < n; step++ {
		best := -1
		for j := 1; j < n; j++ {
			if visited[j] {
				continue
			}
			if best == -1 || dist[current][j] < dist[current][best] {
				best = j
			}
		}
		visited[best] = true
		tour = append(tour, best)
		current = best
	}
	return tour
}

// twoOpt reverses tour segments while doing so shortens the open path. Position
// 0 holds the player and is never moved.
func twoOpt(dist [][]float64, tour []int) {
	for improved := true; improved; {
		improved = false
		for i := 1; i < len(tour)-1; i++ {
			for j := i + 1; j < len(tour); j++ {
				if delta(dist, tour, i, j) < -improvementEpsilon {
					reverse(tour[i : j+1])
					improved = true
				}
			}
		}
	}
}

// delta is the change in path length from reversing tour[i..j].
func delta(dist [][]float64, tour []int, i, j int) float64 {
	a, b, c := tour[i-1], tour[i], tour[j]
	if j+1 == len(tour) {
		// open path: no edge leaves the last node
		return dist[a][c] - dist[a][b]
	}
	d := tour[j+1]
	return (dist[a][c] + dist[b][d]) - (dist[a][b] + dist[c][d])
}

func reverse(s []int) {
	for l, r := 0, len(s)-1; l < r; l, r = l+1, r-1 {
		s[l], s[r] = s[r], s[l]
	}
}

func toSurveyIndices(tour []int, unvisited []int) []int {
	out := make([]int, 0, len(tour)-1)
	for _, node := range tour[1:] {
		out = append(out, unvisited[node-1])
	}
	return out
}
