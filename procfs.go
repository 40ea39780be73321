package uringscan

import (
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/xerrors"
)

// procDir is a read-only view over a proc-style directory tree. All of the
// detection and classification logic goes through this narrow surface so it
// can be exercised against synthetic trees in tests, and so `--proc-root`
// can point at a host proc mounted inside a container.
type procDir struct {
	root string
}

// pids lists the numeric top-level entries of the tree. This is the only
// proc read whose failure aborts a scan; everything below a PID directory is
// best-effort because processes exit at any time.
func (p procDir) pids() ([]int, error) {
	ents, err := os.ReadDir(p.root)
	if err != nil {
		return nil, xerrors.Errorf("read dir %q: %v: %w", p.root, err, ErrEnumerate)
	}

	var pids []int
	for _, ent := range ents {
		if !ent.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(ent.Name())
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// readFile returns the contents of a file under the given PID directory.
func (p procDir) readFile(pid int, name string) (string, error) {
	out, err := os.ReadFile(filepath.Join(p.root, strconv.Itoa(pid), name))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// readLink resolves a symlink under the given PID directory.
func (p procDir) readLink(pid int, name string) (string, error) {
	return os.Readlink(filepath.Join(p.root, strconv.Itoa(pid), name))
}

// fdLinks resolves every open file-descriptor link of the given PID. A
// descriptor that disappears mid-walk is skipped.
func (p procDir) fdLinks(pid int) ([]string, error) {
	fdDir := filepath.Join(p.root, strconv.Itoa(pid), "fd")
	ents, err := os.ReadDir(fdDir)
	if err != nil {
		return nil, err
	}

	targets := make([]string, 0, len(ents))
	for _, ent := range ents {
		target, err := os.Readlink(filepath.Join(fdDir, ent.Name()))
		if err != nil {
			continue
		}
		targets = append(targets, target)
	}
	return targets, nil
}
