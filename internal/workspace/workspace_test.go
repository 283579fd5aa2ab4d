package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// newTemplate lays out a minimal template project on disk:
//
//	<dir>/gleam_project/gleam.toml
//	<dir>/gleam_project/src/gleam_project.gleam
func newTemplate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "gleam_project", "src")
	if err := os.MkdirAll(src, 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		filepath.Join(dir, "gleam_project", "gleam.toml"): "name = \"gleam_project\"\n",
		filepath.Join(src, "gleam_project.gleam"):         "// placeholder\n",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestAcquireCopiesTemplate(t *testing.T) {
	m := NewManager(newTemplate(t), "gleam_project")

	ws, err := m.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Release()

	toml, err := os.ReadFile(filepath.Join(ws.ProjectDir(), "gleam.toml"))
	if err != nil {
		t.Fatalf("template file not staged: %v", err)
	}
	if string(toml) != "name = \"gleam_project\"\n" {
		t.Errorf("staged gleam.toml = %q", toml)
	}
}

func TestAcquireIsolation(t *testing.T) {
	m := NewManager(newTemplate(t), "gleam_project")

	a, err := m.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	defer a.Release()
	b, err := m.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	defer b.Release()

	if a.Root == b.Root {
		t.Error("two acquisitions share a root directory")
	}

	if err := a.Inject("src/gleam_project.gleam", "import gleam/io"); err != nil {
		t.Fatal(err)
	}
	got, err := b.ReadFile("src/gleam_project.gleam")
	if err != nil {
		t.Fatal(err)
	}
	if got != "// placeholder\n" {
		t.Errorf("injection into one workspace leaked into another: %q", got)
	}
}

func TestInjectOverwritesPlaceholder(t *testing.T) {
	m := NewManager(newTemplate(t), "gleam_project")
	ws, err := m.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Release()

	code := "pub fn main() { io.println(\"hi\") }"
	if err := ws.Inject("src/gleam_project.gleam", code); err != nil {
		t.Fatal(err)
	}
	got, err := ws.ReadFile("src/gleam_project.gleam")
	if err != nil {
		t.Fatal(err)
	}
	if got != code {
		t.Errorf("ReadFile = %q, want injected code", got)
	}
}

func TestReleaseRemovesEverything(t *testing.T) {
	m := NewManager(newTemplate(t), "gleam_project")
	ws, err := m.Acquire()
	if err != nil {
		t.Fatal(err)
	}

	root := ws.Root
	ws.Release()

	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Errorf("workspace root %s still exists after Release", root)
	}

	// Double release must be a no-op, not a panic or an error log storm.
	ws.Release()
}

func TestAcquireMissingTemplateIsStagingError(t *testing.T) {
	m := NewManager("/nonexistent/templates", "gleam_project")

	_, err := m.Acquire()
	if err == nil {
		t.Fatal("Acquire succeeded with missing template")
	}
	if !errors.Is(err, ErrStaging) {
		t.Errorf("err = %v, want ErrStaging", err)
	}
}
