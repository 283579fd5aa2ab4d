package snippet

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Shared snippet files carry two comment tags in their header lines,
// followed by the code body:
//
//	//cname: 'hello_world'
//	//cuuid: '6e3fd2f7-...'
//	pub fn main() { ... }
//
// ErrNoHeader is returned when the input ends before both tags appear.
var ErrNoHeader = errors.New("snippet header incomplete")

const (
	tagName = "//cname:"
	tagUUID = "//cuuid:"
)

// FileSnippet is the parsed form of one shared snippet file.
type FileSnippet struct {
	Name string
	UUID string
	// Body is everything after the line that completed the header,
	// preserved byte-for-byte.
	Body string
}

// ParseFile scans header lines for the name and uuid tags until both are
// found, then reads the remainder as the code body. Kept separate from
// the directory-scanning loop so the parsing rules are testable on their
// own.
func ParseFile(r io.Reader) (*FileSnippet, error) {
	br := bufio.NewReader(r)
	var fs FileSnippet

	for fs.Name == "" || fs.UUID == "" {
		line, err := br.ReadString('\n')
		if v, ok := tagValue(line, tagName); ok {
			fs.Name = v
		}
		if v, ok := tagValue(line, tagUUID); ok {
			fs.UUID = v
		}
		if err == io.EOF {
			if fs.Name == "" || fs.UUID == "" {
				return nil, ErrNoHeader
			}
			break
		}
		if err != nil {
			return nil, err
		}
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return nil, err
	}
	fs.Body = string(body)
	return &fs, nil
}

// tagValue extracts the value of a header tag from one line. Values are
// conventionally single-quoted; quotes and surrounding whitespace are
// stripped.
func tagValue(line, tag string) (string, bool) {
	_, rest, found := strings.Cut(line, tag)
	if !found {
		return "", false
	}
	v := strings.TrimSpace(rest)
	v = strings.Trim(v, "'")
	return v, true
}
