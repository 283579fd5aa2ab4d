package snippet

import (
	"errors"
	"strings"
	"testing"
)

func TestParseFile(t *testing.T) {
	input := "//cname: 'hello_world'\n" +
		"//cuuid: '6e3fd2f7-0000-4000-8000-000000000001'\n" +
		"import gleam/io\n\npub fn main() {\n  io.println(\"hi\")\n}\n"

	fs, err := ParseFile(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if fs.Name != "hello_world" {
		t.Errorf("Name = %q", fs.Name)
	}
	if fs.UUID != "6e3fd2f7-0000-4000-8000-000000000001" {
		t.Errorf("UUID = %q", fs.UUID)
	}
	want := "import gleam/io\n\npub fn main() {\n  io.println(\"hi\")\n}\n"
	if fs.Body != want {
		t.Errorf("Body = %q, want code after the header preserved verbatim", fs.Body)
	}
}

func TestParseFile_TagsInEitherOrder(t *testing.T) {
	input := "//cuuid: 'abc'\n//cname: 'x'\nbody\n"
	fs, err := ParseFile(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if fs.UUID != "abc" || fs.Name != "x" || fs.Body != "body\n" {
		t.Errorf("parsed = %+v", fs)
	}
}

func TestParseFile_UnquotedValues(t *testing.T) {
	fs, err := ParseFile(strings.NewReader("//cname: demo\n//cuuid: id-1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if fs.Name != "demo" || fs.UUID != "id-1" {
		t.Errorf("parsed = %+v", fs)
	}
	if fs.Body != "" {
		t.Errorf("Body = %q, want empty", fs.Body)
	}
}

func TestParseFile_MissingTags(t *testing.T) {
	cases := []string{
		"",
		"plain gleam code with no header\n",
		"//cname: 'only_name'\ncode\n",
		"//cuuid: 'only-uuid'\ncode\n",
	}
	for _, input := range cases {
		if _, err := ParseFile(strings.NewReader(input)); !errors.Is(err, ErrNoHeader) {
			t.Errorf("ParseFile(%q) err = %v, want ErrNoHeader", input, err)
		}
	}
}

func TestParseFile_HeaderOnLastLineWithoutNewline(t *testing.T) {
	fs, err := ParseFile(strings.NewReader("//cname: 'n'\n//cuuid: 'u'"))
	if err != nil {
		t.Fatal(err)
	}
	if fs.UUID != "u" || fs.Body != "" {
		t.Errorf("parsed = %+v", fs)
	}
}
