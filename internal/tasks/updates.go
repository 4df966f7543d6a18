package tasks

import "fmt"

// ProgressUpdate represents a progress event during a capture run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Phase enumerates the pipeline stages a capture run moves through.
type Phase int

const (
	Validating Phase = iota
	Detecting
	Generating
	Caching
	Complete
)

func validatingUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: Validating, Step: 1, Total: 1, Message: "Validating capture..."}
}

func detectingUpdate(detector string) ProgressUpdate {
	return ProgressUpdate{Phase: Detecting, Step: 1, Total: 1, Message: fmt.Sprintf("Detecting garments (%s)...", detector)}
}

func generatingUpdate(step, total int, description string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Generating,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Generating image %d/%d: %s", step, total, description),
	}
}

func cachingUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{Phase: Caching, Step: step, Total: total, Message: fmt.Sprintf("Caching image %d/%d...", step, total)}
}

func completeUpdate(count int) ProgressUpdate {
	return ProgressUpdate{Phase: Complete, Step: 1, Total: 1, Message: fmt.Sprintf("Capture complete: %d candidates", count)}
}
