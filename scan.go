package uringscan

import "context"

// ScannerOpts contains all of the configuration options for the scanner. All
// are optional.
type ScannerOpts struct {
	// ProcRoot is the path to the proc filesystem to scan. This is useful
	// when scanning the host from inside a container where the host's proc
	// is mounted somewhere other than `/proc`.
	//
	// If unspecified, `/proc` is used.
	ProcRoot string
}

// Scanner performs point-in-time scans of the system for processes that hold
// io_uring resources. Each call to Scan probes the kernel once, walks every
// visible PID, and returns a fresh ScanResult. Scanners hold no kernel
// resources between scans.
type Scanner interface {
	// Scan runs a single scan and returns the result. It only returns an
	// error if the proc filesystem itself cannot be enumerated or the
	// context is canceled; failures against individual processes are
	// absorbed.
	Scan(ctx context.Context) (*ScanResult, error)
}

// ScanResult is the outcome of a single scan. It is owned exclusively by the
// caller and is not reused across scans.
type ScanResult struct {
	System       SystemInfo         `json:"system"`
	Capabilities KernelCapabilities `json:"capabilities"`

	// Matches contains one record per process that held io_uring resources
	// at scan time, in ascending PID order.
	Matches []ProcessRecord `json:"matches"`
}

// SystemInfo describes the host the scan ran on, taken from uname(2).
type SystemInfo struct {
	Architecture  string `json:"architecture"`
	KernelRelease string `json:"kernel_release"`
	NodeName      string `json:"node_name"`
	Version       string `json:"version"`

	// MeetsBaseline is true if the kernel release is at least 5.1, the
	// first release that shipped io_uring. This is advisory only; the
	// setup probe is the source of truth for support.
	MeetsBaseline bool `json:"meets_baseline"`
}

// FeatureFlag is the symbolic name of a kernel-reported io_uring feature bit,
// e.g. "IORING_FEAT_SINGLE_MMAP".
type FeatureFlag string

// KernelCapabilities describes whether and how the running kernel supports
// io_uring. It is probed exactly once per scan and is immutable afterwards.
type KernelCapabilities struct {
	// Supported is true if an io_uring instance could be created.
	Supported bool `json:"supported"`

	// RawFeatures is the undecoded feature bitmask as reported by the
	// kernel. Bits that have no entry in the decode table appear here but
	// not in Features.
	RawFeatures uint32 `json:"raw_features"`

	// Features contains the decoded feature flags, in bit order.
	Features []FeatureFlag `json:"features"`

	// Ops contains the names of the io_uring opcodes the kernel reports as
	// supported, if the kernel is new enough to answer the registration
	// probe. Empty on kernels that predate IORING_REGISTER_PROBE.
	Ops []string `json:"ops,omitempty"`
}

// BackingState classifies whether the executable image behind a process is
// backed by an on-disk file. Memory-resident executables (deleted after exec,
// or run from an anonymous memory region) are a fileless-execution indicator
// and warrant higher suspicion.
type BackingState string

const (
	// BackingOnDisk means the exe link resolved to a file that still exists
	// on a mounted filesystem.
	BackingOnDisk BackingState = "disk"
	// BackingInMemory means the exe link carries a "(deleted)" marker or
	// points at a memory-only pseudo-path such as a memfd.
	BackingInMemory BackingState = "memory"
	// BackingUnknown means the exe link could not be read or could not be
	// resolved, usually due to permissions or a race with process exit.
	BackingUnknown BackingState = "unknown"
)

// ProcessRecord describes one process that was holding io_uring resources at
// scan time. A record is only constructed after a positive detection; fields
// other than PID are best-effort and degrade to zero values rather than
// removing the record.
type ProcessRecord struct {
	PID  int    `json:"pid"`
	Name string `json:"name"`

	// ExePath is the target of the exe link, or empty if it could not be
	// read.
	ExePath string `json:"exe_path,omitempty"`

	// Cmdline contains the process arguments including argv[0]. Empty if
	// the command line was empty or unreadable.
	Cmdline []string `json:"cmdline,omitempty"`

	Backing BackingState `json:"backing"`

	// VMSizeKB and VMRSSKB are VmSize and VmRSS from the process status
	// summary, in kB. Zero if unreadable.
	VMSizeKB uint64 `json:"vm_size_kb"`
	VMRSSKB  uint64 `json:"vm_rss_kb"`
}
