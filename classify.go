package uringscan

import (
	"os"
	"strconv"
	"strings"
)

// classify builds the record for a PID that already tested positive for
// io_uring usage. Every read below is best-effort: detection is the strong
// signal, so a vanished or unreadable proc entry degrades the affected field
// to its zero value instead of dropping the record.
func classify(p procDir, pid int) ProcessRecord {
	rec := ProcessRecord{
		PID:     pid,
		Backing: BackingUnknown,
	}

	if comm, err := p.readFile(pid, "comm"); err == nil {
		rec.Name = strings.TrimSpace(comm)
	}

	if cmdline, err := p.readFile(pid, "cmdline"); err == nil {
		rec.Cmdline = splitCmdline(cmdline)
	}

	if exe, err := p.readLink(pid, "exe"); err == nil {
		rec.ExePath = exe
		rec.Backing = classifyExe(exe)
	}

	if status, err := p.readFile(pid, "status"); err == nil {
		rec.VMSizeKB, rec.VMRSSKB = parseMemoryStatus(status)
	}

	return rec
}

// classifyExe determines the backing state from an exe link target. The
// kernel appends " (deleted)" when the backing file was unlinked after exec,
// and memfd/anonymous executables carry a pseudo-path rather than a real
// one. A target that no longer stats is ambiguous (the process may live in
// another mount namespace), not proof of fileless execution.
func classifyExe(target string) BackingState {
	switch {
	case strings.Contains(target, "(deleted)"),
		strings.HasPrefix(target, "memfd:"),
		strings.HasPrefix(target, "/memfd:"),
		strings.HasPrefix(target, "anon_inode:"):
		return BackingInMemory
	}

	if _, err := os.Stat(target); err == nil {
		return BackingOnDisk
	}
	return BackingUnknown
}

// splitCmdline splits a raw cmdline record on its NUL argument separators.
// An empty or unreadable command line yields no arguments; kernel threads
// have no cmdline at all.
func splitCmdline(raw string) []string {
	var args []string
	for _, arg := range strings.Split(raw, "\x00") {
		if arg != "" {
			args = append(args, arg)
		}
	}
	return args
}

// parseMemoryStatus pulls VmSize and VmRSS (in kB) out of a process status
// summary. Missing or malformed fields read as zero.
func parseMemoryStatus(status string) (vmSizeKB, vmRSSKB uint64) {
	for _, line := range strings.Split(status, "\n") {
		var dst *uint64
		switch {
		case strings.HasPrefix(line, "VmSize:"):
			dst = &vmSizeKB
		case strings.HasPrefix(line, "VmRSS:"):
			dst = &vmRSSKB
		default:
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if n, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
			*dst = n
		}
	}
	return vmSizeKB, vmRSSKB
}
