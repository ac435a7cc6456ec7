package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LISSConsulting/LISSTech.Blocks/internal/attrs"
	"github.com/LISSConsulting/LISSTech.Blocks/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmdStructure(t *testing.T) {
	cmd := rootCmd()
	want := map[string]bool{"check": false, "init": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
	for _, flag := range []string{"output", "verbose", "color", "dump-delay"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("missing flag --%s", flag)
		}
	}
	if cmd.PersistentFlags().Lookup("config") == nil {
		t.Error("missing persistent flag --config")
	}
}

func TestFormatBlockList(t *testing.T) {
	named := attrs.New()
	named.Set("name", "disk")
	named.Set("instance", "/")
	named.Set("command", "df")
	named.Set("interval", "60")
	named.Set("signal", "3")

	static := attrs.New()
	static.Set("full_text", "hello")

	tests := []struct {
		name     string
		cfg      *config.Config
		contains []string
	}{
		{
			name:     "no blocks",
			cfg:      &config.Config{Path: "/x/config.toml"},
			contains: []string{"/x/config.toml", "─", "no blocks"},
		},
		{
			name: "command and static blocks",
			cfg:  &config.Config{Path: "c.toml", Blocks: []*attrs.Set{named, static}},
			contains: []string{
				"disk:/", "command", "interval 60", "signal 3",
				"(anonymous)", "static", "interval -",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatBlockList(tt.cfg)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("output should contain %q\ngot:\n%s", want, got)
				}
			}
		})
	}
}

func TestCheckCmd(t *testing.T) {
	path := writeConfig(t, "[time]\ncommand = \"date\"\ninterval = 5\n")
	out, err := execute(t, "check", "--config", path)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "time") || !strings.Contains(out, "interval 5") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestCheckCmdInvalid(t *testing.T) {
	path := writeConfig(t, "[time]\ninterval = 5\ncolor = \"red\"\n")
	out, err := execute(t, "check", "-c", path)
	if err == nil {
		t.Fatalf("expected validation error\n%s", out)
	}
	if !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("error = %v", err)
	}
	if !strings.Contains(out, "time") {
		t.Errorf("blocks should still be listed:\n%s", out)
	}
}

func TestCheckCmdMissing(t *testing.T) {
	_, err := execute(t, "check", "-c", filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestCheckCmdConfigFromEnv(t *testing.T) {
	path := writeConfig(t, "[title]\nfull_text = \"blocks\"\n")
	t.Setenv("BLOCKS_CONFIG", path)
	out, err := execute(t, "check")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("output should name %s:\n%s", path, out)
	}
}

func TestInitCmdExecution(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blocks")
	out, err := execute(t, "init", "--dir", dir)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "Created "+filepath.Join(dir, config.FileName)) {
		t.Errorf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "scripts", "load")); err != nil {
		t.Errorf("load script: %v", err)
	}
}

func TestInitCmdIdempotent(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, "init", "--dir", dir); err != nil {
		t.Fatalf("first init: %v", err)
	}
	out, err := execute(t, "init", "--dir", dir)
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if !strings.Contains(out, "Nothing to do") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
