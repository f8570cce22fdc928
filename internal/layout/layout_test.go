package layout

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestComposeSplit(t *testing.T) {
	tests := []struct {
		name     string
		template []byte
		payload  []byte
		meta     Metadata
	}{
		{
			name:     "shell payload",
			template: []byte("\x7fELF template bytes"),
			payload:  []byte("#!/bin/sh\necho \"testscript v1.0.0\"\n"),
			meta:     Metadata{Version: "1.0.0", UpdateURL: "https://example.com/tool"},
		},
		{
			name:     "empty payload",
			template: []byte("template"),
			payload:  []byte{},
			meta:     Metadata{Version: "0.0.0"},
		},
		{
			name:     "payload containing markers",
			template: []byte("template"),
			payload:  []byte("echo x\n" + EndMarker + "\n" + BeginMarker + "\nexit 0"),
			meta:     Metadata{Version: "2.0.0", UpdateURL: "http://localhost:8182/x"},
		},
		{
			name:     "payload without trailing newline",
			template: []byte("template\n"),
			payload:  []byte("echo hi"),
			meta:     Metadata{Version: "20220200"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Compose(tt.template, tt.payload, tt.meta)
			if err != nil {
				t.Fatalf("Compose() error = %v", err)
			}

			f, err := Split(data)
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if !bytes.Equal(f.Template, tt.template) {
				t.Errorf("Template = %q, want %q", f.Template, tt.template)
			}
			if !bytes.Equal(f.Payload, tt.payload) {
				t.Errorf("Payload = %q, want %q", f.Payload, tt.payload)
			}
			if f.Metadata != tt.meta {
				t.Errorf("Metadata = %+v, want %+v", f.Metadata, tt.meta)
			}
		})
	}
}

func TestComposePayloadBetweenMarkers(t *testing.T) {
	payload := []byte("#!/bin/sh\necho hello\n")
	data, err := Compose([]byte("tmpl"), payload, Metadata{Version: "1.0.0"})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	want := "\n" + BeginMarker + "\n" + string(payload) + "\n" + EndMarker + "\n"
	if !bytes.Contains(data, []byte(want)) {
		t.Errorf("composed data does not hold the payload between marker lines:\n%s", data)
	}
}

func TestComposeReplacesExistingTrailer(t *testing.T) {
	first, err := Compose([]byte("tmpl"), []byte("echo one"), Metadata{Version: "1"})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	second, err := Compose(first, []byte("echo two"), Metadata{Version: "2"})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	f, err := Split(second)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if string(f.Template) != "tmpl" {
		t.Errorf("Template = %q, want %q", f.Template, "tmpl")
	}
	if string(f.Payload) != "echo two" {
		t.Errorf("Payload = %q, want %q", f.Payload, "echo two")
	}
}

func TestSplit_NoTrailer(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte("plain binary"),
		[]byte("plain binary\nwith lines\n"),
	}
	for _, in := range inputs {
		if _, err := Split(in); !errors.Is(err, ErrNoTrailer) {
			t.Errorf("Split(%q) error = %v, want ErrNoTrailer", in, err)
		}
	}
}

func TestSplit_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"offset out of range", "abc\n## sus-trailer 999\n"},
		{"offset not a number", "abc\n## sus-trailer x\n"},
		{"missing begin", "abc\nfoo\n## sus-trailer 3\n"},
		{"missing end", "abc\n" + BeginMarker + "\npayload\n## sus-trailer 3\n"},
		{"bad metadata", "abc\n" + BeginMarker + "\np\n" + EndMarker + "\nversion = = \n## sus-trailer 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestStrip(t *testing.T) {
	data, err := Compose([]byte("tmpl"), []byte("echo"), Metadata{Version: "1"})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if got := Strip(data); string(got) != "tmpl" {
		t.Errorf("Strip() = %q, want %q", got, "tmpl")
	}
	if got := Strip([]byte("no trailer")); string(got) != "no trailer" {
		t.Errorf("Strip() = %q, want input unchanged", got)
	}
}

func TestSetMetadata(t *testing.T) {
	data, err := Compose([]byte("tmpl"), []byte("echo payload\n"), Metadata{Version: "1.0.0", UpdateURL: "https://old.example/x"})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	updated, err := SetMetadata(data, Metadata{Version: "123.456.666", UpdateURL: "https://whatever.what/script"})
	if err != nil {
		t.Fatalf("SetMetadata() error = %v", err)
	}

	f, err := Split(updated)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if f.Metadata.Version != "123.456.666" {
		t.Errorf("Version = %s, want 123.456.666", f.Metadata.Version)
	}
	if f.Metadata.UpdateURL != "https://whatever.what/script" {
		t.Errorf("UpdateURL = %s, want https://whatever.what/script", f.Metadata.UpdateURL)
	}
	if string(f.Payload) != "echo payload\n" {
		t.Errorf("Payload = %q, want unchanged", f.Payload)
	}
}

func TestReadFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "wrapped")

	data, err := Compose([]byte("tmpl"), []byte("echo"), Metadata{Version: "3.1.4"})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if err := os.WriteFile(path, data, 0755); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	f, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if f.Metadata.Version != "3.1.4" {
		t.Errorf("Version = %s, want 3.1.4", f.Metadata.Version)
	}

	if _, err := ReadFile(filepath.Join(tmpDir, "missing")); err == nil {
		t.Error("Expected error for missing file")
	}
}
