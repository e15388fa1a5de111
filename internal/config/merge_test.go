package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDeepMerge(t *testing.T) {
	tests := []struct {
		name     string
		dst      Conf
		src      Conf
		expected Conf
	}{
		{
			name:     "nil dst",
			dst:      nil,
			src:      Conf{"a": 1},
			expected: Conf{"a": 1},
		},
		{
			name:     "nil src",
			dst:      Conf{"a": 1},
			src:      nil,
			expected: Conf{"a": 1},
		},
		{
			name:     "src overrides dst",
			dst:      Conf{"a": 1},
			src:      Conf{"a": 2},
			expected: Conf{"a": 2},
		},
		{
			name: "deep nested merge",
			dst: Conf{
				"level1": map[string]any{"level2": map[string]any{"a": 1}},
			},
			src: Conf{
				"level1": map[string]any{"level2": map[string]any{"b": 2}},
			},
			expected: Conf{
				"level1": map[string]any{"level2": map[string]any{"a": 1, "b": 2}},
			},
		},
		{
			name:     "non-map overwrites map",
			dst:      Conf{"value": map[string]any{"a": 1}},
			src:      Conf{"value": "string"},
			expected: Conf{"value": "string"},
		},
		{
			name:     "map overwrites non-map",
			dst:      Conf{"value": "string"},
			src:      Conf{"value": map[string]any{"a": 1}},
			expected: Conf{"value": map[string]any{"a": 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeepMerge(tt.dst, tt.src)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("DeepMerge() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeClonesSource(t *testing.T) {
	src := Conf{"nested": map[string]any{"a": 1}}
	got := Merge(nil, src)

	got["nested"].(map[string]any)["a"] = 2
	if src["nested"].(map[string]any)["a"] != 1 {
		t.Error("Merge() result shares nested maps with its source")
	}
}

func TestPaths(t *testing.T) {
	conf := Conf{}
	if err := SetByPath(conf, "pagination.pageSize", 15); err != nil {
		t.Fatalf("SetByPath() error = %v", err)
	}
	if err := SetByPath(conf, "bad.", 1); err != ErrInvalidPath {
		t.Errorf("SetByPath(bad.) error = %v, want ErrInvalidPath", err)
	}

	v, ok := GetByPath(conf, "pagination.pageSize")
	if !ok || v != 15 {
		t.Errorf("GetByPath() = %v, %v; want 15, true", v, ok)
	}
	if _, ok := GetByPath(conf, "pagination.missing"); ok {
		t.Error("GetByPath() found a missing key")
	}
}

func TestChangedPaths(t *testing.T) {
	old := Conf{"a": 1, "nested": map[string]any{"b": 2, "c": 3}, "gone": true}
	updated := Conf{"a": 1, "nested": map[string]any{"b": 5, "c": 3}, "added": "x"}

	want := []string{"added", "gone", "nested.b"}
	if diff := cmp.Diff(want, ChangedPaths(old, updated)); diff != "" {
		t.Errorf("ChangedPaths() mismatch (-want +got):\n%s", diff)
	}
}

func TestAccessors(t *testing.T) {
	conf := Conf{"server": "https://c.example/", "flag": "true", "n": 3}

	if got := String(conf, "server"); got != "https://c.example/" {
		t.Errorf("String() = %q", got)
	}
	if !Bool(conf, "flag") {
		t.Error("Bool(\"true\") = false")
	}
	if String(conf, "n") != "" {
		t.Error("String() of a number should be empty")
	}

	server, err := ServerURL(conf)
	if err != nil || server != "https://c.example" {
		t.Errorf("ServerURL() = %q, %v", server, err)
	}
	if _, err := ServerURL(Conf{}); err != ErrMissingServer {
		t.Errorf("ServerURL(empty) error = %v, want ErrMissingServer", err)
	}
	if _, err := ServerURL(Conf{"server": "ftp://x"}); err == nil {
		t.Error("ServerURL(ftp) error = nil")
	}
}
