//go:build !windows

package main

import (
	"os"

	"golang.org/x/sys/unix"
)

// stopSignals end the bar. SIGHUP covers a closed terminal in term mode.
var stopSignals = []os.Signal{unix.SIGINT, unix.SIGTERM, unix.SIGHUP}
