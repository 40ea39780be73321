package uringscan

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeProc builds a synthetic proc-style tree under a temp dir so the
// detection and classification logic can be exercised without depending on
// live kernel state.
type fakeProc struct {
	t    *testing.T
	root string
}

func newFakeProc(t *testing.T) *fakeProc {
	t.Helper()
	return &fakeProc{t: t, root: t.TempDir()}
}

func (f *fakeProc) dir() procDir {
	return procDir{root: f.root}
}

func (f *fakeProc) pidDir(pid int) string {
	f.t.Helper()
	dir := filepath.Join(f.root, strconv.Itoa(pid))
	require.NoError(f.t, os.MkdirAll(filepath.Join(dir, "fd"), 0o755))
	return dir
}

// addProcess creates the standard per-PID files: comm (with the trailing
// newline the kernel emits), a NUL-separated cmdline, and an empty maps.
func (f *fakeProc) addProcess(pid int, comm string, args ...string) {
	f.t.Helper()
	dir := f.pidDir(pid)

	require.NoError(f.t, os.WriteFile(filepath.Join(dir, "comm"), []byte(comm+"\n"), 0o644))

	var cmdline []byte
	for _, arg := range args {
		cmdline = append(cmdline, arg...)
		cmdline = append(cmdline, 0)
	}
	require.NoError(f.t, os.WriteFile(filepath.Join(dir, "cmdline"), cmdline, 0o644))

	require.NoError(f.t, os.WriteFile(filepath.Join(dir, "maps"), nil, 0o644))
}

func (f *fakeProc) setStatus(pid int, vmSizeKB, vmRSSKB uint64) {
	f.t.Helper()
	status := fmt.Sprintf("Name:\ttest\nVmSize:\t%8d kB\nVmRSS:\t%8d kB\nThreads:\t1\n", vmSizeKB, vmRSSKB)
	require.NoError(f.t, os.WriteFile(filepath.Join(f.pidDir(pid), "status"), []byte(status), 0o644))
}

// addFD creates a descriptor symlink. Proc fd links point at textual
// targets like "anon_inode:[io_uring]" that are not real paths; dangling
// symlinks reproduce that exactly.
func (f *fakeProc) addFD(pid, fd int, target string) {
	f.t.Helper()
	require.NoError(f.t, os.Symlink(target, filepath.Join(f.pidDir(pid), "fd", strconv.Itoa(fd))))
}

func (f *fakeProc) setMaps(pid int, maps string) {
	f.t.Helper()
	require.NoError(f.t, os.WriteFile(filepath.Join(f.pidDir(pid), "maps"), []byte(maps), 0o644))
}

func (f *fakeProc) setExe(pid int, target string) {
	f.t.Helper()
	require.NoError(f.t, os.Symlink(target, filepath.Join(f.pidDir(pid), "exe")))
}

// writeRealExe creates an actual file on disk and points the exe link at
// it, mimicking a process whose binary still exists.
func (f *fakeProc) writeRealExe(pid int) string {
	f.t.Helper()
	path := filepath.Join(f.t.TempDir(), "testbin")
	require.NoError(f.t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	f.setExe(pid, path)
	return path
}

const ringMapsLine = "7f9c80000000-7f9c80001000 rw-s 00000000 00:0e 1042                       anon_inode:[io_uring]\n"

const plainMaps = "" +
	"55d4c0000000-55d4c0021000 r--p 00000000 fd:01 523412                     /usr/bin/cat\n" +
	"7f1a60000000-7f1a60180000 r-xp 00000000 fd:01 918217                     /usr/lib/x86_64-linux-gnu/libc.so.6\n" +
	"7ffc5a000000-7ffc5a021000 rw-p 00000000 00:00 0                          [stack]\n"
