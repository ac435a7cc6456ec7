package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/LISSConsulting/LISSTech.Blocks/internal/attrs"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func get(t *testing.T, set *attrs.Set, key string) string {
	t.Helper()
	v, ok := set.Get(key)
	if !ok {
		t.Fatalf("key %q missing (have %v)", key, set.Keys())
	}
	return v
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, `
separator_block_width = 15
color = "#FFFFFF"

[cpu]
command = "cpu.sh"
interval = 5
urgent = false

[[disk]]
instance = "/"

[[disk]]
instance = "/home"
min_width = 100
ratio = 0.5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}
	if cfg.Dir != dir {
		t.Errorf("Dir = %q, want %q", cfg.Dir, dir)
	}
	if len(cfg.Blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(cfg.Blocks))
	}

	cpu := cfg.Blocks[0]
	wantKeys := []string{"separator_block_width", "color", "name", "command", "interval", "urgent"}
	if got := cpu.Keys(); !reflect.DeepEqual(got, wantKeys) {
		t.Errorf("keys = %v, want %v", got, wantKeys)
	}

	tests := []struct {
		name string
		set  *attrs.Set
		key  string
		want string
	}{
		{"global int", cpu, "separator_block_width", "15"},
		{"global string", cpu, "color", "#FFFFFF"},
		{"table name", cpu, "name", "cpu"},
		{"int", cpu, "interval", "5"},
		{"bool", cpu, "urgent", "false"},
		{"array table name", cfg.Blocks[1], "name", "disk"},
		{"first instance", cfg.Blocks[1], "instance", "/"},
		{"second instance", cfg.Blocks[2], "instance", "/home"},
		{"min_width", cfg.Blocks[2], "min_width", "100"},
		{"float", cfg.Blocks[2], "ratio", "0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := get(t, tt.set, tt.key); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
			}
		})
	}

	if cfg.Blocks[1].Has("min_width") {
		t.Error("array table entries must not share properties")
	}
}

func TestLoadTOMLNestedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[menu]
items = ["a", "b"]
extra = { depth = 2 }
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := get(t, cfg.Blocks[0], "items"); got != `["a","b"]` {
		t.Errorf("items = %q", got)
	}
	if got := get(t, cfg.Blocks[0], "extra"); got != `{"depth":2}` {
		t.Errorf("extra = %q", got)
	}
}

func TestLoadTOMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[cpu\ncommand = 1"},
		{"dotted key outside block", "cpu.interval = 5"},
		{"duplicate key", "[cpu]\na = 1\na = 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			writeFile(t, path, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
separator: false
blocks:
  - name: cpu
    command: cpu.sh
    interval: 5
  - full_text: static
    min_width: 100
    modifiers: [Shift, Mod4]
markup: pango
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(cfg.Blocks))
	}

	cpu := cfg.Blocks[0]
	if got := cpu.Keys(); !reflect.DeepEqual(got, []string{"separator", "name", "command", "interval"}) {
		t.Errorf("keys = %v", got)
	}
	if got := get(t, cpu, "separator"); got != "false" {
		t.Errorf("separator = %q", got)
	}
	if got := get(t, cfg.Blocks[1], "min_width"); got != "100" {
		t.Errorf("min_width = %q", got)
	}
	if got := get(t, cfg.Blocks[1], "modifiers"); got != `["Shift","Mod4"]` {
		t.Errorf("modifiers = %q", got)
	}
	if cfg.Blocks[1].Has("name") {
		t.Error("blocks without name stay anonymous")
	}
	if cpu.Has("markup") {
		t.Error("globals apply only to blocks declared after them")
	}
}

func TestLoadYAMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"top level sequence", "- a\n- b\n"},
		{"blocks not a sequence", "blocks: 3\n"},
		{"block not a mapping", "blocks:\n  - cpu\n"},
		{"nested global", "defaults:\n  color: red\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yml")
			writeFile(t, path, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestLoadSearchPaths(t *testing.T) {
	home := t.TempDir()
	xdgHome := filepath.Join(home, "xdg")
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", xdgHome)
	t.Setenv("XDG_CONFIG_DIRS", filepath.Join(home, "sys"))

	t.Run("nothing found", func(t *testing.T) {
		if _, err := Load(""); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("system dir", func(t *testing.T) {
		writeFile(t, filepath.Join(home, "sys", "blocks", FileName), "[sys]\n")
		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		if got := get(t, cfg.Blocks[0], "name"); got != "sys" {
			t.Errorf("name = %q, want sys", got)
		}
	})

	t.Run("drop-in directory", func(t *testing.T) {
		writeFile(t, filepath.Join(home, ".blocks.d", "20-b.toml"), "[b]\n")
		writeFile(t, filepath.Join(home, ".blocks.d", "10-a.toml"), "color = \"#000000\"\n[a]\n")
		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		if len(cfg.Blocks) != 2 {
			t.Fatalf("got %d blocks, want 2", len(cfg.Blocks))
		}
		if got := get(t, cfg.Blocks[0], "name"); got != "a" {
			t.Errorf("first block = %q, want a", got)
		}
		if got := get(t, cfg.Blocks[1], "color"); got != "#000000" {
			t.Errorf("globals carry across files, got color %q", got)
		}
		if cfg.Dir != filepath.Join(home, ".blocks.d") {
			t.Errorf("Dir = %q", cfg.Dir)
		}
	})

	t.Run("user file wins", func(t *testing.T) {
		writeFile(t, filepath.Join(xdgHome, "blocks", FileName), "[user]\n")
		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		if got := get(t, cfg.Blocks[0], "name"); got != "user" {
			t.Errorf("name = %q, want user", got)
		}
	})
}

func TestSearchPaths(t *testing.T) {
	t.Setenv("HOME", "/home/u")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_CONFIG_DIRS", "/a:/b")

	want := []string{
		"/home/u/.config/blocks/config.toml",
		"/home/u/.blocks.toml",
		"/home/u/.blocks.d",
		"/a/blocks/config.toml",
		"/b/blocks/config.toml",
		"/etc/blocks.toml",
	}
	if got := SearchPaths(); !reflect.DeepEqual(got, want) {
		t.Errorf("SearchPaths() = %v, want %v", got, want)
	}
}

func TestValidate(t *testing.T) {
	block := func(kv ...string) *attrs.Set {
		s := attrs.New()
		for i := 0; i+1 < len(kv); i += 2 {
			s.Set(kv[i], kv[i+1])
		}
		return s
	}

	tests := []struct {
		name    string
		set     *attrs.Set
		wantErr string
	}{
		{"valid", block("name", "cpu", "command", "x", "interval", "5", "color", "#FF0000"), ""},
		{"alpha color", block("color", "#FF000080"), ""},
		{"static", block("full_text", "hi"), ""},
		{"bad interval", block("command", "x", "interval", "soon"), "interval"},
		{"bad signal", block("command", "x", "signal", "99"), "signal"},
		{"bad format", block("command", "x", "format", "xml"), "format"},
		{"interval without command", block("interval", "5"), "no command"},
		{"signal without command", block("signal", "1"), "no command"},
		{"bad color", block("color", "red"), "hex color"},
		{"bad align", block("align", "middle"), "align"},
		{"bad markup", block("markup", "html"), "markup"},
		{"bad urgent", block("urgent", "yes"), "urgent"},
		{"bad border", block("border_top", "-1"), "border_top"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Blocks: []*attrs.Set{tt.set}}
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateJoinsIssues(t *testing.T) {
	a := attrs.New()
	a.Set("name", "a")
	a.Set("interval", "soon")
	b := attrs.New()
	b.Set("name", "b")
	b.Set("instance", "1")
	b.Set("color", "red")

	err := (&Config{Blocks: []*attrs.Set{a, b}}).Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"block 1 [a]", "block 2 [b:1]", "no command"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %q", msg, want)
		}
	}
}
