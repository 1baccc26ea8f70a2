// Package dblock serializes tests from different packages that share one
// Postgres database. The lock is a listening TCP port, released when the
// listener closes or the test process exits.
package dblock

import (
	"net"
	"os"
	"time"
)

const defaultAddr = "127.0.0.1:45432"

func addr() string {
	if a := os.Getenv("DBLOCK_ADDR"); a != "" {
		return a
	}
	return defaultAddr
}

// Acquire blocks until the lock is held and returns its release function.
func Acquire() func() {
	release, _ := AcquireWithin(0)
	return release
}

// AcquireWithin gives up after d. A zero d waits forever.
func AcquireWithin(d time.Duration) (func(), bool) {
	var deadline time.Time
	if d > 0 {
		deadline = time.Now().Add(d)
	}
	for {
		ln, err := net.Listen("tcp", addr())
		if err == nil {
			return func() { ln.Close() }, true
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return func() {}, false
		}
		time.Sleep(50 * time.Millisecond)
	}
}
