package route

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyor/internal/survey"
)

func pathLength(dist [][]float64, tour []int) float64 {
	total := 0.0
	for k := 1; k < len(tour); k++ {
		total += dist[tour[k-1]][tour[k]]
	}
	return total
}

func randomSurveys(r *rand.Rand, n int) []survey.Survey {
	out := make([]survey.Survey, n)
	for i := range out {
		out[i] = survey.Survey{
			Resource: "Ore",
			DX:       r.Intn(1600) - 800,
			DY:       r.Intn(1600) - 800,
			Found:    r.Intn(5) == 0,
		}
	}
	return out
}

func TestPlan_DegenerateCases(t *testing.T) {
	center := [2]float64{0.5, 0.5}

	t.Run("no surveys", func(t *testing.T) {
		assert.Empty(t, Plan(center, nil, "Serbule"))
	})

	t.Run("all found", func(t *testing.T) {
		surveys := []survey.Survey{{Resource: "A", DX: 10, Found: true}, {Resource: "B", DY: 5, Found: true}}
		assert.Empty(t, Plan(center, surveys, "Serbule"))
	})

	t.Run("single unvisited", func(t *testing.T) {
		surveys := []survey.Survey{
			{Resource: "A", DX: 10, Found: true},
			{Resource: "B", DX: 100},
			{Resource: "C", DY: -40, Found: true},
		}
		assert.Equal(t, []int{1}, Plan(center, surveys, "Serbule"))
	})
}

func TestPlan_SerbuleGeometry(t *testing.T) {
	w, h := survey.Dimensions("Serbule")
	player := survey.PlayerMeters([2]float64{0.5, 0.5}, w, h)
	assert.Equal(t, survey.Point{X: 1191, Y: 1244}, player)

	surveys := []survey.Survey{{Resource: "Salt", DX: 100, DY: 0}}
	assert.Equal(t, []int{0}, Plan([2]float64{0.5, 0.5}, surveys, "Serbule"))
	assert.InDelta(t, 100.0, Length([2]float64{0.5, 0.5}, surveys, "Serbule", []int{0}), 1e-9)
}

func TestPlan_FollowsObviousLine(t *testing.T) {
	// Stops along a line east of the player, declared out of order.
	surveys := []survey.Survey{
		{Resource: "C", DX: 300},
		{Resource: "A", DX: 100},
		{Resource: "D", DX: 400},
		{Resource: "B", DX: 200},
	}
	assert.Equal(t, []int{1, 3, 0, 2}, Plan([2]float64{0.5, 0.5}, surveys, "Serbule"))
}

func TestPlan_IsPermutationOfUnvisited(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		surveys := randomSurveys(r, 1+r.Intn(14))
		pos := [2]float64{r.Float64(), r.Float64()}

		got := Plan(pos, surveys, "Eltibule")

		want := survey.Unvisited(surveys)
		sorted := append([]int(nil), got...)
		sort.Ints(sorted)
		if len(want) == 0 {
			require.Empty(t, got)
			continue
		}
		require.Equal(t, want, sorted, "trial %d: route %v", trial, got)
	}
}

func TestPlan_TwoOptNeverWorseThanNearestNeighbor(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		surveys := randomSurveys(r, 2+r.Intn(12))
		pos := [2]float64{r.Float64(), r.Float64()}

		_, nodes := layout(pos, surveys, "Ilmari")
		if len(nodes) < 3 {
			continue
		}
		dist := distanceMatrix(nodes)
		nn := nearestNeighbor(dist)
		nnLen := pathLength(dist, nn)

		opt := append([]int(nil), nn...)
		twoOpt(dist, opt)

		assert.LessOrEqual(t, pathLength(dist, opt), nnLen+1e-9, "trial %d", trial)
		assert.Equal(t, 0, opt[0], "player node must stay first")
	}
}

func TestPlan_Deterministic(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	surveys := randomSurveys(r, 12)
	pos := [2]float64{0.31, 0.77}

	first := Plan(pos, surveys, "Kur Mountains")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Plan(pos, surveys, "Kur Mountains"))
	}
}

func TestNearestNeighbor_TieBreaksOnLowestIndex(t *testing.T) {
	// Nodes 1 and 2 are equidistant from the player.
	dist := [][]float64{
		{0, 5, 5},
		{5, 0, 1},
		{5, 1, 0},
	}
	assert.Equal(t, []int{0, 1, 2}, nearestNeighbor(dist))
}

func TestDelta_OpenPathBoundary(t *testing.T) {
	dist := [][]float64{
		{0, 10, 1},
		{10, 0, 2},
		{1, 2, 0},
	}
	tour := []int{0, 1, 2}
	// reversing the tail drops edge 0-1 (10) for 0-2 (1)
	assert.InDelta(t, -9.0, delta(dist, tour, 1, 2), 1e-12)

	twoOpt(dist, tour)
	assert.Equal(t, []int{0, 2, 1}, tour)
}

func TestLength_SkipsUnknownIndices(t *testing.T) {
	surveys := []survey.Survey{{Resource: "A", DX: 30, DY: 40}}
	assert.InDelta(t, 50.0, Length([2]float64{0.5, 0.5}, surveys, "Serbule", []int{0, 9, -1}), 1e-9)
}

func TestPlan_ClampsToZoneBounds(t *testing.T) {
	// Both surveys land on the east edge once clamped, so they coincide.
	surveys := []survey.Survey{{Resource: "A", DX: 5000}, {Resource: "B", DX: 9000}}
	got := Plan([2]float64{1, 0.5}, surveys, "Serbule")
	assert.ElementsMatch(t, []int{0, 1}, got)
	assert.InDelta(t, 0.0, Length([2]float64{1, 0.5}, surveys, "Serbule", got), 1e-9)
}
