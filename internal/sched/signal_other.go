//go:build !linux

package sched

import "os"

func realtimeSignal(n int) (os.Signal, bool) {
	return nil, false
}
