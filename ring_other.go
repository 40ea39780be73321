//go:build !linux
// +build !linux

package uringscan

// Ring is only available on Linux.
type Ring struct{}

// NewRing is not supported on OSes other than Linux.
func NewRing(_ uint32) (*Ring, error) {
	return nil, errUnsupportedOS
}

// FD returns the ring file descriptor, or -1 after ReleaseFD or Close.
func (r *Ring) FD() int { return -1 }

// ReleaseFD is not supported on OSes other than Linux.
func (r *Ring) ReleaseFD() error { return errUnsupportedOS }

// Close is not supported on OSes other than Linux.
func (r *Ring) Close() error { return errUnsupportedOS }
