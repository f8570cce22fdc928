// Package layout reads and writes the trailer that turns a copy of the sus
// executable into an installed wrapper.
//
// An installed file is the template executable followed by:
//
//	\n## BEGIN embedded content\n
//	<payload bytes>
//	\n## END embedded content\n
//	version = '1.0.0'
//	updateUrl = 'https://example.com/tool'
//	## sus-trailer <offset>\n
//
// The last line records the byte offset at which the trailer starts, so the
// markers are only ever searched inside the trailer itself.
package layout

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

const (
	// BeginMarker is the line preceding the embedded payload.
	BeginMarker = "## BEGIN embedded content"
	// EndMarker is the line following the embedded payload.
	EndMarker = "## END embedded content"

	trailerTag = "## sus-trailer "
)

var (
	// ErrNoTrailer is returned when data carries no embedded content.
	ErrNoTrailer = errors.New("no embedded content found")
	// ErrMalformed is returned when a trailer is present but damaged.
	ErrMalformed = errors.New("malformed trailer")
)

// Metadata holds the declared configuration fields of an installed file.
type Metadata struct {
	Version   string `toml:"version" json:"version" yaml:"version"`
	UpdateURL string `toml:"updateUrl" json:"update_url" yaml:"update_url"`
}

// File is a parsed installed file.
type File struct {
	Template []byte
	Payload  []byte
	Metadata Metadata
}

// Compose appends a trailer carrying payload and meta to template.
// Any trailer already present on template is dropped first.
func Compose(template, payload []byte, meta Metadata) ([]byte, error) {
	template = Strip(template)

	metaBytes, err := toml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(template) + len(payload) + len(metaBytes) + 128)
	buf.Write(template)
	buf.WriteString("\n" + BeginMarker + "\n")
	buf.Write(payload)
	buf.WriteString("\n" + EndMarker + "\n")
	buf.Write(metaBytes)
	if len(metaBytes) > 0 && metaBytes[len(metaBytes)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString(trailerTag + strconv.Itoa(len(template)) + "\n")

	return buf.Bytes(), nil
}

// Split parses data into template, payload and metadata.
func Split(data []byte) (*File, error) {
	offset, tagStart, err := locate(data)
	if err != nil {
		return nil, err
	}

	region := data[offset:tagStart]
	head := []byte("\n" + BeginMarker + "\n")
	if !bytes.HasPrefix(region, head) {
		return nil, fmt.Errorf("%w: missing %q marker", ErrMalformed, BeginMarker)
	}
	rest := region[len(head):]

	tail := []byte("\n" + EndMarker + "\n")
	end := bytes.LastIndex(rest, tail)
	if end < 0 {
		return nil, fmt.Errorf("%w: missing %q marker", ErrMalformed, EndMarker)
	}

	var meta Metadata
	if err := toml.Unmarshal(rest[end+len(tail):], &meta); err != nil {
		return nil, fmt.Errorf("%w: bad metadata: %v", ErrMalformed, err)
	}

	return &File{
		Template: data[:offset],
		Payload:  rest[:end],
		Metadata: meta,
	}, nil
}

// Strip returns data without its trailer. Data without a trailer is
// returned unchanged.
func Strip(data []byte) []byte {
	offset, _, err := locate(data)
	if err != nil {
		return data
	}
	return data[:offset]
}

// SetMetadata rewrites the metadata fields of an installed file, keeping
// template and payload intact.
func SetMetadata(data []byte, meta Metadata) ([]byte, error) {
	f, err := Split(data)
	if err != nil {
		return nil, err
	}
	return Compose(f.Template, f.Payload, meta)
}

// ReadFile reads and parses the installed file at path.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Split(data)
}

// locate finds the trailer start offset and the start of the tag line.
func locate(data []byte) (offset, tagStart int, err error) {
	if len(data) == 0 || data[len(data)-1] != '\n' {
		return 0, 0, ErrNoTrailer
	}
	tagStart = bytes.LastIndexByte(data[:len(data)-1], '\n') + 1
	line := data[tagStart : len(data)-1]
	if !bytes.HasPrefix(line, []byte(trailerTag)) {
		return 0, 0, ErrNoTrailer
	}

	offset, err = strconv.Atoi(string(line[len(trailerTag):]))
	if err != nil || offset < 0 || offset >= tagStart {
		return 0, 0, fmt.Errorf("%w: bad offset %q", ErrMalformed, line[len(trailerTag):])
	}
	return offset, tagStart, nil
}
