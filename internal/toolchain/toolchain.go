// Package toolchain describes the shell commands that drive the Gleam
// build, run and format tools against a staged project.
package toolchain

import (
	"path/filepath"

	"gleam-playground/internal/shell"
)

// Toolchain binds the fixed project layout to the three stage commands.
// All commands run with the staged project directory as their working
// directory; the pipeline fills in Dir per workspace.
type Toolchain struct {
	// ProjectName is the template project directory name.
	ProjectName string
	// SourceFile is the snippet path relative to the project directory.
	SourceFile string
}

// Default returns the stock playground layout: a rebar3-managed project
// named gleam_project with the snippet at src/gleam_project.gleam.
func Default() Toolchain {
	return Toolchain{
		ProjectName: "gleam_project",
		SourceFile:  filepath.Join("src", "gleam_project.gleam"),
	}
}

// Compile builds the project into an escript. HOME points at the
// workspace root so rebar3 keeps its caches inside the ephemeral
// directory. Compiler diagnostics arrive interleaved on one stream.
func (t Toolchain) Compile(workspaceRoot string) shell.Command {
	return shell.Command{
		Line:        "rebar3 escriptize",
		Env:         []string{"HOME=" + workspaceRoot},
		MergeStderr: true,
	}
}

// Run executes the escript produced by Compile.
func (t Toolchain) Run() shell.Command {
	return shell.Command{
		Line: "_build/default/bin/" + t.ProjectName,
	}
}

// Format rewrites the project sources in place.
func (t Toolchain) Format() shell.Command {
	return shell.Command{
		Line: "gleam format",
	}
}
