package pipeline

import "fmt"

// Stage names, in execution order.
const (
	StageStaging    = "staging"
	StageCompiling  = "compiling"
	StageRunning    = "running"
	StageFormatting = "formatting"
)

// PipelineError marks infrastructure faults inside a pipeline invocation:
// workspace staging failures and subprocess spawn failures. User-code
// faults (non-zero compile or run exits) are never wrapped in it; those
// come back as events in a successful Result.
type PipelineError struct {
	RunID string
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	if e.RunID != "" {
		return fmt.Sprintf("run %s: %s: %s", e.RunID, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
