package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// InitFile writes the default config.toml to dir.
func InitFile(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config: %s already exists at %s", FileName, path)
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return "", fmt.Errorf("config: write %s: %w", path, err)
	}
	return path, nil
}

// Scaffold creates a configuration directory: dir itself, config.toml and
// the example scripts it refers to. Files that already exist are left
// untouched. Returns the list of created paths.
func Scaffold(dir string) ([]string, error) {
	var created []string

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
			return created, fmt.Errorf("scaffold: create %s: %w", dir, mkErr)
		}
		created = append(created, dir)
	}

	// config.toml
	configPath := filepath.Join(dir, FileName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if _, initErr := InitFile(dir); initErr != nil {
			return created, initErr
		}
		created = append(created, configPath)
	}

	// scripts/
	scriptsDir := filepath.Join(dir, "scripts")
	if _, err := os.Stat(scriptsDir); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(scriptsDir, 0755); mkErr != nil {
			return created, fmt.Errorf("scaffold: create %s: %w", scriptsDir, mkErr)
		}
		created = append(created, scriptsDir)
	}

	loadPath := filepath.Join(scriptsDir, "load")
	if _, err := os.Stat(loadPath); os.IsNotExist(err) {
		if writeErr := os.WriteFile(loadPath, []byte(loadScript), 0755); writeErr != nil {
			return created, fmt.Errorf("scaffold: write %s: %w", loadPath, writeErr)
		}
		created = append(created, loadPath)
	}

	return created, nil
}

const defaultConfig = `# blocks configuration
#
# Top-level keys are defaults copied into every block. Each [table] is a
# block named after the table; use [[table]] to declare several blocks with
# the same name and tell them apart with "instance". Commands run with
# "sh -c" from this directory.

separator_block_width = 15
markup = "none"

[title]
full_text = "blocks"
color = "#7D56F4"

[load]
command = "scripts/load"
interval = 10
label = "LOAD "

[[disk]]
instance = "/"
command = "df -h --output=avail \"$instance\" | tail -1"
interval = 60

[time]
command = "date '+%Y-%m-%d %H:%M'"
interval = 5
`

const loadScript = `#!/bin/sh
# Prints the one-minute load average, urgent above the number of CPUs.
load=$(cut -d ' ' -f 1 /proc/loadavg)
cpus=$(nproc)
echo "${label}${load}"
echo "${load}"
if awk "BEGIN { exit !($load > $cpus) }"; then
	echo "#FF0000"
	exit 33
fi
`
