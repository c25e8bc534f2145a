// Package timesource backs the TIME syscall with a monotonic counter. On
// real x86_64 hardware that counter comes from the TSC or a boot-time tick
// count, neither of which this hosted repository has access to, so it is
// grounded on the host's monotonic clock instead via golang.org/x/sys/unix,
// the same package the rest of the retrieved pack reaches for when it
// needs a raw kernel facility rather than a higher-level time.Time.
package timesource

import "golang.org/x/sys/unix"

// Now returns the current value of CLOCK_MONOTONIC in nanoseconds. The
// TIME syscall has no documented failure mode, so on the rare platform
// where the clock read itself fails, it falls back to 0 rather than
// propagating an error out of a contract that has none.
func Now() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return uint64(ts.Sec)*1_000_000_000 + uint64(ts.Nsec)
}
