//go:build linux
// +build linux

package uringscan

import (
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// readSystemInfo collects the uname banner fields. A failed uname (which
// should not happen on Linux) yields zero-valued fields rather than an
// error; the banner is informational.
func readSystemInfo() SystemInfo {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return SystemInfo{}
	}

	release := unix.ByteSliceToString(uts.Release[:])
	return SystemInfo{
		Architecture:  unix.ByteSliceToString(uts.Machine[:]),
		KernelRelease: release,
		NodeName:      unix.ByteSliceToString(uts.Nodename[:]),
		Version:       unix.ByteSliceToString(uts.Version[:]),
		MeetsBaseline: meetsKernelBaseline(release),
	}
}

// meetsKernelBaseline reports whether a kernel release string is at least
// 5.1, the release that introduced io_uring. Unparseable release strings
// (common on heavily patched vendor kernels) read as not meeting the
// baseline; the setup probe decides actual support either way.
func meetsKernelBaseline(release string) bool {
	major, minor, err := parseKernelVersion(release)
	if err != nil {
		return false
	}
	return major > 5 || (major == 5 && minor >= 1)
}

// parseKernelVersion extracts major.minor from a release string like
// "6.1.0-13-amd64".
func parseKernelVersion(release string) (major, minor int, err error) {
	parts := strings.SplitN(release, ".", 3)
	if len(parts) < 2 {
		return 0, 0, strconv.ErrSyntax
	}

	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}

	// The minor component may carry a non-numeric suffix ("10-rc1").
	minorStr := parts[1]
	if i := strings.IndexFunc(minorStr, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		minorStr = minorStr[:i]
	}
	minor, err = strconv.Atoi(minorStr)
	if err != nil {
		return 0, 0, err
	}

	return major, minor, nil
}
