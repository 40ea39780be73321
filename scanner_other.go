//go:build !linux
// +build !linux

package uringscan

// New is not supported on OSes other than Linux.
func New(_ *ScannerOpts) (Scanner, error) {
	return nil, errUnsupportedOS
}
