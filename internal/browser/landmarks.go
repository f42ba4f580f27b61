package browser

import "context"

// Landmark is a selector probed for diagnostics when a step fails. The
// name keys the presence map in failure reports ("login_form",
// "compose_editor").
type Landmark struct {
	Name     string
	Selector string
}

// ProbeLandmarks checks every landmark and returns a name->present map.
// Probe errors are recorded as absent; diagnostics never fail a flow.
func ProbeLandmarks(ctx context.Context, page Page, landmarks []Landmark) map[string]bool {
	out := make(map[string]bool, len(landmarks))
	for _, lm := range landmarks {
		present, err := page.IsPresent(ctx, lm.Selector)
		out[lm.Name] = err == nil && present
	}
	return out
}
