// Package config loads the block configuration: an ordered list of blocks,
// each an attribute snapshot, read from a TOML or YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/LISSConsulting/LISSTech.Blocks/internal/attrs"
	"github.com/LISSConsulting/LISSTech.Blocks/internal/block"
)

// FileName is the configuration file looked up in configuration directories.
const FileName = "config.toml"

// hexColorRe matches "#RRGGBB" or "#RRGGBBAA".
var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}([0-9A-Fa-f]{2})?$`)

// Config is a loaded block configuration.
type Config struct {
	Path   string       // file or directory the blocks were read from
	Dir    string       // working directory for block commands
	Blocks []*attrs.Set // one snapshot per block, in declaration order
}

// loader accumulates blocks across one or more files. Globals persist from
// file to file and are copied into every block declared after them.
type loader struct {
	globals *attrs.Set
	blocks  []*attrs.Set
}

func newLoader() *loader {
	return &loader{globals: attrs.New()}
}

func (l *loader) global(key, value string) {
	l.globals.Set(key, value)
}

// section starts a new block seeded with the current globals.
func (l *loader) section(name string) *attrs.Set {
	s := l.globals.Clone()
	if name != "" {
		s.Set("name", name)
	}
	l.blocks = append(l.blocks, s)
	return s
}

func (l *loader) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch DetectFormat(path, data) {
	case FormatYAML:
		err = l.parseYAML(data)
	default:
		err = l.parseTOML(data)
	}
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// Load reads the block configuration from path. If path is empty, the
// default locations are searched and the first one that exists is used.
func Load(path string) (*Config, error) {
	if path != "" {
		return loadPath(path)
	}

	for _, candidate := range SearchPaths() {
		info, err := os.Stat(candidate)
		if err != nil {
			continue
		}
		if info.IsDir() {
			return loadDir(candidate)
		}
		return loadPath(candidate)
	}
	return nil, fmt.Errorf("config: no configuration found (searched %s)", strings.Join(SearchPaths(), ", "))
}

func loadPath(path string) (*Config, error) {
	l := newLoader()
	if err := l.loadFile(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: %s not found", path)
		}
		return nil, err
	}
	return l.config(path, filepath.Dir(path)), nil
}

// loadDir loads every regular file of dir, sorted by name, as one
// configuration.
func loadDir(dir string) (*Config, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	l := newLoader()
	for _, name := range names {
		if err := l.loadFile(filepath.Join(dir, name)); err != nil {
			return nil, err
		}
	}
	return l.config(dir, dir), nil
}

func (l *loader) config(path, dir string) *Config {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &Config{Path: path, Dir: dir, Blocks: l.blocks}
}

// SearchPaths returns the default configuration locations in lookup order.
// A directory entry stands for all the files it contains.
func SearchPaths() []string {
	var paths []string

	home, _ := os.UserHomeDir()
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "blocks", FileName))
	} else if home != "" {
		paths = append(paths, filepath.Join(home, ".config", "blocks", FileName))
	}
	if home != "" {
		paths = append(paths,
			filepath.Join(home, ".blocks.toml"),
			filepath.Join(home, ".blocks.d"),
		)
	}

	dirs := os.Getenv("XDG_CONFIG_DIRS")
	if dirs == "" {
		dirs = "/etc/xdg"
	}
	for _, d := range filepath.SplitList(dirs) {
		if d != "" {
			paths = append(paths, filepath.Join(d, "blocks", FileName))
		}
	}

	return append(paths, "/etc/blocks.toml")
}

// DefaultDir returns the per-user configuration directory.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "blocks"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", "blocks"), nil
}

// Validate checks every block for properties that would fail at runtime or
// be rejected by the bar host. It returns all found issues joined together.
func (c *Config) Validate() error {
	var errs []error
	for i, set := range c.Blocks {
		for _, issue := range validateBlock(set) {
			errs = append(errs, fmt.Errorf("block %d %s: %w", i+1, label(set), issue))
		}
	}
	return errors.Join(errs...)
}

func validateBlock(set *attrs.Set) []error {
	var errs []error

	if v, ok := set.Get("interval"); ok {
		if _, err := block.ParseInterval(v); err != nil {
			errs = append(errs, err)
		}
	}
	if v, ok := set.Get("signal"); ok {
		if _, err := block.ParseSignal(v); err != nil {
			errs = append(errs, err)
		}
	}
	if v, ok := set.Get("format"); ok && v != block.FormatRaw && v != block.FormatJSON {
		errs = append(errs, fmt.Errorf("format must be %s or %s, got %q", block.FormatRaw, block.FormatJSON, v))
	}

	_, hasCommand := set.Get("command")
	if !hasCommand {
		if _, ok := set.Get("interval"); ok {
			errs = append(errs, fmt.Errorf("interval is set but there is no command"))
		}
		if _, ok := set.Get("signal"); ok {
			errs = append(errs, fmt.Errorf("signal is set but there is no command"))
		}
	}

	for _, key := range []string{"color", "background", "border"} {
		if v, ok := set.Get(key); ok && !hexColorRe.MatchString(v) {
			errs = append(errs, fmt.Errorf("%s must be a hex color (e.g. \"#FF8000\"), got %q", key, v))
		}
	}
	if v, ok := set.Get("align"); ok && v != "left" && v != "center" && v != "right" {
		errs = append(errs, fmt.Errorf("align must be left, center or right, got %q", v))
	}
	if v, ok := set.Get("markup"); ok && v != "none" && v != "pango" {
		errs = append(errs, fmt.Errorf("markup must be none or pango, got %q", v))
	}
	for _, key := range []string{"urgent", "separator"} {
		if v, ok := set.Get(key); ok && v != "true" && v != "false" {
			errs = append(errs, fmt.Errorf("%s must be true or false, got %q", key, v))
		}
	}
	for _, key := range []string{"separator_block_width", "border_top", "border_bottom", "border_left", "border_right"} {
		if v, ok := set.Get(key); ok {
			if n, err := strconv.Atoi(v); err != nil || n < 0 {
				errs = append(errs, fmt.Errorf("%s must be an integer >= 0, got %q", key, v))
			}
		}
	}
	return errs
}

func label(set *attrs.Set) string {
	name, _ := set.Get("name")
	if instance, ok := set.Get("instance"); ok {
		return fmt.Sprintf("[%s:%s]", name, instance)
	}
	return fmt.Sprintf("[%s]", name)
}
