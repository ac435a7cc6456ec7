package config

import (
	"bufio"
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
)

// Format is a configuration file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

var (
	tomlLineRe = regexp.MustCompile(`^(\[\[?[^\]]*\]\]?|[A-Za-z0-9_."-]+\s*=)`)
	yamlLineRe = regexp.MustCompile(`^(---|-\s|[A-Za-z0-9_."-]+\s*:(\s|$))`)
)

// DetectFormat infers the syntax of a configuration file. The extension
// decides when it is .toml, .yaml or .yml; otherwise the first meaningful
// line of data is inspected. Anything undecidable is treated as TOML.
func DetectFormat(path string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if tomlLineRe.MatchString(line) {
			return FormatTOML
		}
		if yamlLineRe.MatchString(line) {
			return FormatYAML
		}
		break
	}
	return FormatTOML
}
