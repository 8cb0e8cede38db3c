//go:build unix

// This file contains code inspired by Syncthing's rlimit implementation
// Syncthing is licensed under the Mozilla Public License Version 2.0
// See: https://github.com/syncthing/syncthing/blob/main/LICENSE

package watcher

import (
	"runtime"
	"syscall"
)

const (
	// macOS has a specific limit for RLIMIT_NOFILE
	darwinOpenMax = 10240
)

// Ulimit tries to raise the resource limit RLIMIT_NOFILE (number of open
// file descriptors) to the max (hard limit), if the current (soft) limit is
// below it. Returns the new (though possibly unchanged) limit, or an error
// if it could not be changed. A recursive watch on a large tree can hold
// open one descriptor per directory, so this is called once at startup.
func Ulimit() (int, error) {
	var lim syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &lim); err != nil {
		return 0, err
	}

	if lim.Cur >= lim.Max {
		return int(lim.Cur), nil
	}

	if runtime.GOOS == "darwin" && lim.Max > darwinOpenMax {
		lim.Max = darwinOpenMax
	}

	oldLimit := lim.Cur
	lim.Cur = lim.Max
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &lim); err != nil {
		return int(oldLimit), err
	}

	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &lim); err != nil {
		return 0, err
	}

	return int(lim.Cur), nil
}
