// pkg/utils/usage.go

package utils

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

var started = time.Now()

// Usage is the CPU and wall time a process, or a slice of its life, used.
type Usage struct {
	User   time.Duration
	System time.Duration
	Wall   time.Duration
}

// TakeUsage reads the totals accrued since the process started.
func TakeUsage() Usage {
	var ru unix.Rusage
	_ = unix.Getrusage(unix.RUSAGE_SELF, &ru)
	return Usage{
		User:   time.Duration(ru.Utime.Nano()),
		System: time.Duration(ru.Stime.Nano()),
		Wall:   time.Since(started),
	}
}

// Sub returns what was used between prev and u.
func (u Usage) Sub(prev Usage) Usage {
	return Usage{
		User:   u.User - prev.User,
		System: u.System - prev.System,
		Wall:   u.Wall - prev.Wall,
	}
}

func (u Usage) String() string {
	return fmt.Sprintf("%.3fs user, %.3fs system CPU in %s", u.User.Seconds(), u.System.Seconds(), u.Wall)
}
