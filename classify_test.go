package uringscan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyOnDisk(t *testing.T) {
	t.Parallel()

	proc := newFakeProc(t)
	proc.addProcess(100, "ringer", "/usr/bin/ringer", "--depth", "32")
	proc.setStatus(100, 123456, 7890)
	exe := proc.writeRealExe(100)

	rec := classify(proc.dir(), 100)
	require.Equal(t, 100, rec.PID)
	require.Equal(t, "ringer", rec.Name)
	require.Equal(t, exe, rec.ExePath)
	require.Equal(t, []string{"/usr/bin/ringer", "--depth", "32"}, rec.Cmdline)
	require.Equal(t, BackingOnDisk, rec.Backing)
	require.EqualValues(t, 123456, rec.VMSizeKB)
	require.EqualValues(t, 7890, rec.VMRSSKB)
}

func TestClassifyDeletedExe(t *testing.T) {
	t.Parallel()

	// Binary unlinked after exec: the kernel appends a deleted marker to
	// the exe link target.
	proc := newFakeProc(t)
	proc.addProcess(200, "ghost", "/tmp/ghost")
	proc.setStatus(200, 5000, 1000)
	proc.setExe(200, "/tmp/ghost (deleted)")

	rec := classify(proc.dir(), 200)
	require.Equal(t, BackingInMemory, rec.Backing)
	require.Equal(t, "/tmp/ghost (deleted)", rec.ExePath)
}

func TestClassifyMemfdExe(t *testing.T) {
	t.Parallel()

	proc := newFakeProc(t)
	proc.addProcess(201, "fileless")
	proc.setExe(201, "/memfd:payload (deleted)")

	rec := classify(proc.dir(), 201)
	require.Equal(t, BackingInMemory, rec.Backing)
}

func TestClassifyUnreadableExe(t *testing.T) {
	t.Parallel()

	// No exe link at all (permission denied or racing exit): the record is
	// still produced with degraded fields.
	proc := newFakeProc(t)
	proc.addProcess(300, "opaque")

	rec := classify(proc.dir(), 300)
	require.Equal(t, 300, rec.PID)
	require.Equal(t, "opaque", rec.Name)
	require.Empty(t, rec.ExePath)
	require.Equal(t, BackingUnknown, rec.Backing)
	require.Zero(t, rec.VMSizeKB)
	require.Zero(t, rec.VMRSSKB)
}

func TestClassifyVanishedProcess(t *testing.T) {
	t.Parallel()

	proc := newFakeProc(t)
	rec := classify(proc.dir(), 9999)
	require.Equal(t, 9999, rec.PID)
	require.Empty(t, rec.Name)
	require.Equal(t, BackingUnknown, rec.Backing)
}

func TestClassifyExe(t *testing.T) {
	t.Parallel()

	require.Equal(t, BackingInMemory, classifyExe("/usr/bin/gone (deleted)"))
	require.Equal(t, BackingInMemory, classifyExe("memfd:exploit"))
	require.Equal(t, BackingInMemory, classifyExe("/memfd:exploit (deleted)"))
	require.Equal(t, BackingInMemory, classifyExe("anon_inode:[something]"))
	require.Equal(t, BackingUnknown, classifyExe("/no/such/path/anywhere"))
}

func TestSplitCmdline(t *testing.T) {
	t.Parallel()

	require.Nil(t, splitCmdline(""))
	require.Equal(t, []string{"nginx"}, splitCmdline("nginx\x00"))
	require.Equal(t, []string{"sh", "-c", "sleep 1"}, splitCmdline("sh\x00-c\x00sleep 1\x00"))

	// Kernel threads have an entirely empty cmdline.
	require.Nil(t, splitCmdline("\x00\x00"))
}

func TestParseMemoryStatus(t *testing.T) {
	t.Parallel()

	vm, rss := parseMemoryStatus("Name:\tcat\nVmSize:\t   10432 kB\nVmRSS:\t     812 kB\n")
	require.EqualValues(t, 10432, vm)
	require.EqualValues(t, 812, rss)

	// Kernel threads report no Vm* fields at all.
	vm, rss = parseMemoryStatus("Name:\tkworker/0:1\nThreads:\t1\n")
	require.Zero(t, vm)
	require.Zero(t, rss)

	// Malformed lines degrade to zero instead of failing.
	vm, rss = parseMemoryStatus("VmSize:\nVmRSS:\tnot-a-number kB\n")
	require.Zero(t, vm)
	require.Zero(t, rss)
}
