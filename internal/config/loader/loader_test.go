package loader

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func TestForFileFormats(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/conf.toml", `
server = "https://comments.example"
site = "Blog"
preferRemoteConf = true

[pagination]
pageSize = 10
`)
	memfs.AddFile("/conf.yaml", `
server: https://comments.example
site: Blog
preferRemoteConf: true
pagination:
  pageSize: 10
`)
	memfs.AddFile("/conf.json", `{
  "server": "https://comments.example",
  "site": "Blog",
  "preferRemoteConf": true,
  "pagination": {"pageSize": 10}
}`)

	for _, path := range []string{"/conf.toml", "/conf.yaml", "/conf.json"} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			l, err := ForFile(memfs, path)
			if err != nil {
				t.Fatalf("ForFile() error = %v", err)
			}
			got, err := l.Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if got["server"] != "https://comments.example" {
				t.Errorf("server = %v", got["server"])
			}
			if got["preferRemoteConf"] != true {
				t.Errorf("preferRemoteConf = %v", got["preferRemoteConf"])
			}
			pagination, ok := got["pagination"].(map[string]any)
			if !ok {
				t.Fatalf("pagination = %T, want map[string]any", got["pagination"])
			}
			if _, ok := pagination["pageSize"]; !ok {
				t.Error("pagination.pageSize missing")
			}
		})
	}
}

func TestForFileUnsupported(t *testing.T) {
	_, err := ForFile(NewMemFS(), "/conf.ini")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ForFile() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	l := NewTOMLLoader(NewMemFS(), "/missing.toml")
	got, err := l.Load()
	if err != nil || got != nil {
		t.Errorf("Load() = %v, %v; want nil, nil", got, err)
	}
}

func TestParseErrors(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.toml", "server = \n")
	memfs.AddFile("/bad.json", "{")

	for _, path := range []string{"/bad.toml", "/bad.json"} {
		l, err := ForFile(memfs, path)
		if err != nil {
			t.Fatal(err)
		}
		_, err = l.Load()
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("%s: Load() error = %v, want *ParseError", path, err)
			continue
		}
		if perr.Path != path {
			t.Errorf("ParseError.Path = %q, want %q", perr.Path, path)
		}
	}
}

func TestLoadFromReader(t *testing.T) {
	l := NewYAMLLoader(nil, "")
	got, err := l.LoadFromReader(strings.NewReader("locale: fr\n"))
	if err != nil {
		t.Fatalf("LoadFromReader() error = %v", err)
	}
	if got["locale"] != "fr" {
		t.Errorf("locale = %v, want fr", got["locale"])
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threadline.toml")
	if err := os.WriteFile(path, []byte(`locale = "de"`), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got["locale"] != "de" {
		t.Errorf("locale = %v, want de", got["locale"])
	}
}

func TestEnvLoader_Load(t *testing.T) {
	l := NewEnvLoader(DefaultEnvPrefix)
	l.environ = func() []string {
		return []string{
			"THREADLINE_SERVER=https://c.example",
			"THREADLINE_PREFER_REMOTE_CONF=true",
			"THREADLINE_PAGINATION_PAGE_SIZE=15",
			"THREADLINE_REQ_HEADERS=[\"a\"]",
			"OTHER_VAR=ignored",
		}
	}

	got, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := map[string]any{
		"server":           "https://c.example",
		"preferRemoteConf": true,
		"pagination":       map[string]any{"pageSize": int64(15)},
		"req":              map[string]any{"headers": []any{"a"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", ""},
		{"yes", true},
		{"off", false},
		{"42", int64(42)},
		{"1.5", 1.5},
		{"auto", "auto"},
		{`{"a":1}`, map[string]any{"a": float64(1)}},
		{"[broken", "[broken"},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, parseValue(tt.in)); diff != "" {
			t.Errorf("parseValue(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}
