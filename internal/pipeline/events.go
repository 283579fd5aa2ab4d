package pipeline

import (
	"gleam-playground/internal/ansi"
	"gleam-playground/internal/shell"
)

// Kind tags an event with the stream it was captured from.
type Kind string

const (
	KindStdout Kind = "stdout"
	KindStderr Kind = "stderr"
)

// Event is one line of sanitized subprocess output. The JSON field names
// are the wire contract consumed by the frontend terminal emulator.
type Event struct {
	Message string `json:"Message"`
	Kind    Kind   `json:"Kind"`
	// Delay is a client-side playback pacing hint. Always zero today;
	// the field stays on the wire for forward compatibility.
	Delay int `json:"Delay"`
}

// appendEvents converts one stage's captured output into events, in
// captured order: the stdout lines, then any stderr lines. Stages that
// merge stderr into stdout contribute a single interleaved stdout stream.
// Every line is stripped of terminal escape sequences on the way in.
func appendEvents(events []Event, res *shell.Result) []Event {
	for _, line := range res.Stdout {
		events = append(events, Event{Message: ansi.Strip(line), Kind: KindStdout})
	}
	if !emptyCapture(res.Stderr) {
		for _, line := range res.Stderr {
			events = append(events, Event{Message: ansi.Strip(line), Kind: KindStderr})
		}
	}
	return events
}

// emptyCapture reports whether a split capture held no output at all.
// Splitting an empty string yields a single empty line, which would
// otherwise surface as a spurious blank stderr event.
func emptyCapture(lines []string) bool {
	return len(lines) == 0 || (len(lines) == 1 && lines[0] == "")
}
