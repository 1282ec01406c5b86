package game

import (
	"fmt"
	"sort"
	"strconv"

	"surveyor/internal/api"
	"surveyor/internal/survey"
)

// FoundMarker labels surveys that have been collected.
const FoundMarker = "×"

// Project converts the state into a render payload. Dots are placed by
// scaling each survey's absolute position in the zone onto the map display.
// An unvisited survey is labelled with its 1-based place in the route, or
// with its 1-based declaration index when it is not routed.
func (s *State) Project() api.RenderPayload {
	zw, zh := survey.Dimensions(s.Zone)
	player := survey.PlayerMeters(s.PlayerPos, zw, zh)

	routePos := make(map[int]int, len(s.PathOrder))
	for pos, idx := range s.PathOrder {
		if _, seen := routePos[idx]; !seen {
			routePos[idx] = pos
		}
	}

	dots := make([]api.DotRender, 0, len(s.Surveys))
	counts := make(map[string]int)
	found := 0

	for i, sv := range s.Surveys {
		p := survey.Locate(player, sv, zw, zh)

		var label string
		switch {
		case sv.Found:
			label = FoundMarker
			found++
		default:
			if pos, ok := routePos[i]; ok {
				label = strconv.Itoa(pos + 1)
			} else {
				label = strconv.Itoa(i + 1)
			}
		}

		dots = append(dots, api.DotRender{
			X:        p.X / zw * s.MapWidth,
			Y:        p.Y / zh * s.MapHeight,
			Label:    label,
			Found:    sv.Found,
			Resource: sv.Resource,
		})
		counts[sv.Resource]++
	}

	resources := make([]api.ResourceCount, 0, len(counts))
	for name, n := range counts {
		resources = append(resources, api.ResourceCount{Name: name, Count: n})
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].Name < resources[j].Name })

	return api.RenderPayload{
		Mode:        s.Mode.String(),
		Zone:        s.Zone,
		PlayerPos:   s.PlayerPos,
		Dots:        dots,
		PathIndices: append([]int{}, s.PathOrder...),
		Summary:     fmt.Sprintf("%d/%d found", found, len(s.Surveys)),
		Resources:   resources,
	}
}
