// Package ansi removes terminal escape sequences from subprocess output.
//
// rebar3 and the gleam compiler both color their diagnostics. The frontend
// terminal renders plain text, so every captured line is stripped before it
// becomes an event.
package ansi

import "regexp"

// escape matches 7-bit C1 Fe sequences and CSI sequences
// (parameter bytes, intermediate bytes, final byte).
var escape = regexp.MustCompile(`\x1B(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

// Strip removes all well-formed escape sequences from s and returns every
// other byte verbatim. A truncated sequence (an ESC with no valid final
// byte, e.g. "\x1b[" at end of input) does not match and is left as literal
// text rather than consumed.
func Strip(s string) string {
	if !containsESC(s) {
		return s
	}
	return escape.ReplaceAllString(s, "")
}

func containsESC(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1B {
			return true
		}
	}
	return false
}
