//go:build linux

package parking

import (
	"log"
	"runtime"

	"golang.org/x/sys/unix"
)

// applyPriority pins the calling goroutine to its own OS thread and sets
// that thread's nice value. The thread is discarded when the goroutine
// exits, so the setting never leaks to other goroutines. Raising priority
// needs CAP_SYS_NICE; without it the loop runs at the default.
func applyPriority(name string, p Priority) {
	if p == PriorityNormal {
		return
	}
	runtime.LockOSThread()
	if err := unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), p.nice()); err != nil {
		log.Printf("%s: set %s priority: %v", name, p, err)
	}
}
