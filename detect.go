package uringscan

import "strings"

// ringAnnotation is the anonymous-inode label the kernel gives io_uring
// instances in fd link targets and memory-mapping path columns.
const ringAnnotation = "anon_inode:[io_uring]"

// usesIOUring reports whether the given PID holds io_uring resources.
//
// Two independent evidence sources are consulted. Open descriptors are
// checked first because that read is cheap and catches the common case. The
// mapping check is still required: a process can close the ring fd after
// mmapping the rings, and the kernel keeps the mappings (and the ring) alive
// until they are unmapped.
//
// Any per-process read failure (exited, permission denied) reads as "not
// using io_uring" so that one misbehaving process never aborts a scan.
func usesIOUring(p procDir, pid int) bool {
	return hasRingFD(p, pid) || hasRingMapping(p, pid)
}

// hasRingFD reports whether any open descriptor of the process points at an
// io_uring anonymous inode.
func hasRingFD(p procDir, pid int) bool {
	targets, err := p.fdLinks(pid)
	if err != nil {
		return false
	}
	for _, target := range targets {
		if strings.Contains(target, ringAnnotation) {
			return true
		}
	}
	return false
}

// hasRingMapping reports whether the process maps an io_uring region.
func hasRingMapping(p procDir, pid int) bool {
	maps, err := p.readFile(pid, "maps")
	if err != nil {
		return false
	}
	return mapsContainRing(maps)
}

// mapsContainRing scans a maps listing for an io_uring region. The pathname
// column is the sixth field; earlier columns are addresses, permissions and
// device numbers that cannot contain the annotation, so a per-line substring
// match is sufficient and avoids a full parse.
func mapsContainRing(maps string) bool {
	for _, line := range strings.Split(maps, "\n") {
		if strings.Contains(line, ringAnnotation) {
			return true
		}
	}
	return false
}
