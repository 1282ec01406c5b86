package api

// SurveyAPI defines the control surface a front end uses to drive the
// survey state. Every call runs synchronously on the caller's goroutine and
// returns the payload as it stands after the call.
type SurveyAPI interface {
	// State access
	GetRenderState() RenderPayload

	// Mode and batching
	SetMode(mode string) RenderPayload
	SetBatchSize(n int) RenderPayload

	// Map geometry
	SetPlayerPos(x, y float64) RenderPayload
	SetMapSize(width, height float64) RenderPayload
	SetZone(zone string) RenderPayload

	// Survey management
	ToggleFound(index int) RenderPayload
	ClearSurveys() RenderPayload

	// Log ingestion. Fails without mutating anything when path is not an
	// existing directory.
	SetLogDirectory(path string) (RenderPayload, error)
}

// Notification names, as seen by observers outside the process.
const (
	NotifyZoneChanged  = "zone-changed"
	NotifyStateUpdated = "state-updated"
)

// RenderPayload is everything a renderer needs to draw the current state.
type RenderPayload struct {
	Mode        string          `json:"mode"`         // "record" or "find"
	Zone        string          `json:"zone"`         // Current zone name
	PlayerPos   [2]float64      `json:"player_pos"`   // Normalized player position
	Dots        []DotRender     `json:"dots"`         // One per committed survey
	PathIndices []int           `json:"path_indices"` // Survey indices in visit order
	Summary     string          `json:"summary"`      // "found/total found"
	Resources   []ResourceCount `json:"resources"`    // Sorted by name
}

// DotRender is one survey projected onto the map display.
type DotRender struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Label    string  `json:"label"`
	Found    bool    `json:"found"`
	Resource string  `json:"resource"`
}

// ResourceCount is the number of committed surveys for one resource.
type ResourceCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
