//go:build linux
// +build linux

package uringscan

import (
	"context"
	"sort"

	"golang.org/x/xerrors"
)

type scanner struct {
	proc procDir
}

var _ Scanner = &scanner{}

// New creates a Scanner using the given options. Passing nil is equivalent
// to passing the zero value.
func New(opts *ScannerOpts) (Scanner, error) {
	if opts == nil {
		opts = &ScannerOpts{}
	}
	root := opts.ProcRoot
	if root == "" {
		root = "/proc"
	}

	return &scanner{
		proc: procDir{root: root},
	}, nil
}

// Scan probes kernel capabilities once, enumerates PIDs, and inspects each
// one in ascending order. The result is a pure snapshot: a process that
// starts after enumeration is never inspected, and a recorded process that
// exits afterwards keeps its already-collected metadata.
//
// PIDs can be reused by unrelated processes between enumeration and
// inspection. The window is a few milliseconds per PID and a reused PID is
// re-inspected from scratch, so the worst case is a record attributed to the
// new holder of the PID, never stale data; no mitigation is attempted.
func (s *scanner) Scan(ctx context.Context) (*ScanResult, error) {
	res := &ScanResult{
		System:       readSystemInfo(),
		Capabilities: probeKernel(),
	}

	pids, err := s.proc.pids()
	if err != nil {
		return nil, xerrors.Errorf("scan: %w", err)
	}
	sort.Ints(pids)

	for _, pid := range pids {
		if err := ctx.Err(); err != nil {
			return nil, xerrors.Errorf("scan canceled: %w", err)
		}

		if !usesIOUring(s.proc, pid) {
			continue
		}
		res.Matches = append(res.Matches, classify(s.proc, pid))
	}

	return res, nil
}
