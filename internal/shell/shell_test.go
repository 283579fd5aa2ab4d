package shell

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRun_CapturesStdout(t *testing.T) {
	res, err := Run(context.Background(), Command{Line: "echo hello"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK {
		t.Error("OK = false, want true")
	}
	// echo emits a trailing newline, so the split keeps an empty tail line.
	want := []string{"hello", ""}
	if len(res.Stdout) != len(want) || res.Stdout[0] != want[0] || res.Stdout[1] != want[1] {
		t.Errorf("Stdout = %q, want %q", res.Stdout, want)
	}
}

func TestRun_SeparateStderr(t *testing.T) {
	res, err := Run(context.Background(), Command{Line: "echo out; echo err 1>&2"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stdout[0] != "out" {
		t.Errorf("Stdout[0] = %q, want %q", res.Stdout[0], "out")
	}
	if res.Stderr[0] != "err" {
		t.Errorf("Stderr[0] = %q, want %q", res.Stderr[0], "err")
	}
}

func TestRun_MergeStderr(t *testing.T) {
	res, err := Run(context.Background(), Command{
		Line:        "echo out; echo err 1>&2",
		MergeStderr: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	joined := ""
	for _, l := range res.Stdout {
		joined += l + "\n"
	}
	if joined != "out\nerr\n\n" {
		t.Errorf("merged stdout = %q, want out and err interleaved", joined)
	}
	if len(res.Stderr) != 1 || res.Stderr[0] != "" {
		t.Errorf("Stderr = %q, want empty capture in merge mode", res.Stderr)
	}
}

func TestRun_NonZeroExitIsNotAnError(t *testing.T) {
	res, err := Run(context.Background(), Command{Line: "echo diag; exit 3"})
	if err != nil {
		t.Fatalf("non-zero exit returned error: %v", err)
	}
	if res.OK {
		t.Error("OK = true, want false")
	}
	if res.Stdout[0] != "diag" {
		t.Errorf("Stdout[0] = %q, output must survive a failed command", res.Stdout[0])
	}
}

func TestRun_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	res, err := Run(context.Background(), Command{Line: "pwd", Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stdout[0] != dir {
		t.Errorf("pwd = %q, want %q", res.Stdout[0], dir)
	}
}

func TestRun_EnvAppended(t *testing.T) {
	res, err := Run(context.Background(), Command{
		Line: "printf '%s' \"$HOME\"",
		Env:  []string{"HOME=/tmp/workspace-home"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stdout[0] != "/tmp/workspace-home" {
		t.Errorf("HOME = %q, want override", res.Stdout[0])
	}
}

func TestRun_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res, err := Run(ctx, Command{Line: "echo partial; sleep 5"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if res == nil {
		t.Fatal("partial result missing on timeout")
	}
	if res.OK {
		t.Error("OK = true after timeout, want false")
	}
	if res.Stdout[0] != "partial" {
		t.Errorf("Stdout[0] = %q, want output captured before the kill", res.Stdout[0])
	}
}

func TestRun_SpawnFailure(t *testing.T) {
	// An unwritable Dir makes the chdir in the child fail before exec.
	_, err := Run(context.Background(), Command{Line: "true", Dir: "/nonexistent/path"})
	if err == nil {
		t.Fatal("err = nil, want spawn failure")
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("spawn failure must not be reported as a timeout")
	}
}
