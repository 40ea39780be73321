package uringscan

import (
	"runtime"

	"golang.org/x/xerrors"
)

// ErrEnumerate is wrapped by errors returned from Scanner.Scan when the proc
// filesystem itself cannot be listed. This is the only failure that aborts a
// scan; check for it with xerrors.Is.
var ErrEnumerate = xerrors.New("cannot enumerate processes")

var (
	errRingClosed = xerrors.New("ring is closed")

	errUnsupportedOS = xerrors.Errorf(`%q is an unsupported OS, only "linux" is supported`, runtime.GOOS)
)

// Suppress unused variable errors. These variables are used in files that are
// not included in all builds.
var (
	_ = errRingClosed
	_ = errUnsupportedOS
)
