package sched

import (
	"os"

	"golang.org/x/sys/unix"
)

// sigRTMin is SIGRTMIN as seen by C programs: glibc reserves the first two
// kernel real-time signals.
const sigRTMin = 34

// realtimeSignal returns SIGRTMIN+n.
func realtimeSignal(n int) (os.Signal, bool) {
	return unix.Signal(sigRTMin + n), true
}
