//go:build linux
// +build linux

package uringscan

import (
	"log"
	"runtime"
	"runtime/debug"
	"sync"
	"unsafe"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// mmap offsets for the three io_uring memory regions, from the kernel ABI.
const (
	ringOffSQRing int64 = 0
	ringOffCQRing int64 = 0x8000000
	ringOffSQEs   int64 = 0x10000000
)

const (
	sqeSize = 64
	cqeSize = 16

	featSingleMmap = 1 << 0
)

// Ring is a real, live io_uring instance. The scanner itself never creates
// one beyond the throwaway capability probe; Ring exists so tests and the
// uringspawn companion binary can produce processes that genuinely hold
// io_uring resources of both evidence classes.
type Ring struct {
	fd int

	// The kernel keeps the ring alive as long as these mappings exist,
	// even after the fd is closed.
	sqMem   []byte
	cqMem   []byte
	sqesMem []byte
	shared  bool

	closeLock sync.Mutex
	closed    chan struct{}
}

// NewRing creates an io_uring instance with the given queue depth and maps
// its rings, exactly as a real consumer of the interface would.
func NewRing(entries uint32) (*Ring, error) {
	var params ringParams
	fd, _, errno := unix.Syscall(unix.SYS_IO_URING_SETUP, uintptr(entries), uintptr(unsafe.Pointer(&params)), 0)
	if errno != 0 {
		return nil, xerrors.Errorf("io_uring_setup: %w", errno)
	}

	r := &Ring{
		fd:     int(fd),
		shared: params.Features&featSingleMmap != 0,
		closed: make(chan struct{}),
	}
	if err := r.mapRings(&params); err != nil {
		_ = unix.Close(r.fd)
		return nil, err
	}

	// It could be very bad if someone forgot to close this, so we'll try to
	// detect when it doesn't get closed and log a warning.
	stack := debug.Stack()
	runtime.SetFinalizer(r, func(r *Ring) {
		err := r.Close()
		if xerrors.Is(err, errRingClosed) {
			return
		}

		log.Printf("ring was finalized but was not closed, created at: %s", stack)
		log.Print("rings must be closed when finished with to avoid leaked kernel resources")
		if err != nil {
			log.Printf("closing ring failed: %+v", err)
		}
	})

	return r, nil
}

// mapRings maps the submission ring, completion ring and SQE array. Kernels
// with IORING_FEAT_SINGLE_MMAP serve the submission and completion rings
// from one region.
func (r *Ring) mapRings(params *ringParams) error {
	sqSize := int(params.SQOff.Array + params.SQEntries*4)
	if r.shared {
		if cqEnd := int(params.CQOff.Cqes + params.CQEntries*cqeSize); cqEnd > sqSize {
			sqSize = cqEnd
		}
	}

	var err error
	r.sqMem, err = unix.Mmap(r.fd, ringOffSQRing, sqSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return xerrors.Errorf("mmap sq ring: %w", err)
	}

	if r.shared {
		r.cqMem = r.sqMem
	} else {
		cqSize := int(params.CQOff.Cqes + params.CQEntries*cqeSize)
		r.cqMem, err = unix.Mmap(r.fd, ringOffCQRing, cqSize,
			unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
		if err != nil {
			_ = unix.Munmap(r.sqMem)
			return xerrors.Errorf("mmap cq ring: %w", err)
		}
	}

	r.sqesMem, err = unix.Mmap(r.fd, ringOffSQEs, int(params.SQEntries)*sqeSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		if !r.shared {
			_ = unix.Munmap(r.cqMem)
		}
		_ = unix.Munmap(r.sqMem)
		return xerrors.Errorf("mmap sqes: %w", err)
	}

	return nil
}

// FD returns the ring file descriptor, or -1 after ReleaseFD or Close.
func (r *Ring) FD() int {
	r.closeLock.Lock()
	defer r.closeLock.Unlock()
	return r.fd
}

// ReleaseFD closes the ring file descriptor while keeping the ring mappings
// alive. The kernel retains the ring (and its maps annotations) until the
// mappings are unmapped, which is exactly the state the mapping evidence
// check exists to catch.
func (r *Ring) ReleaseFD() error {
	r.closeLock.Lock()
	defer r.closeLock.Unlock()
	if r.isClosed() {
		return errRingClosed
	}
	if r.fd < 0 {
		return nil
	}

	err := unix.Close(r.fd)
	r.fd = -1
	if err != nil {
		return xerrors.Errorf("close ring fd: %w", err)
	}
	return nil
}

func (r *Ring) isClosed() bool {
	select {
	case <-r.closed:
		return true
	default:
	}

	return false
}

// Close unmaps all ring memory and closes the fd if it is still open. Once
// this returns the kernel has no record of the ring.
func (r *Ring) Close() error {
	r.closeLock.Lock()
	defer r.closeLock.Unlock()
	if r.isClosed() {
		return errRingClosed
	}
	close(r.closed)
	runtime.SetFinalizer(r, nil)

	var merr error
	if r.sqesMem != nil {
		if err := unix.Munmap(r.sqesMem); err != nil {
			merr = multierror.Append(merr, xerrors.Errorf("munmap sqes: %w", err))
		}
		r.sqesMem = nil
	}
	if !r.shared && r.cqMem != nil {
		if err := unix.Munmap(r.cqMem); err != nil {
			merr = multierror.Append(merr, xerrors.Errorf("munmap cq ring: %w", err))
		}
	}
	r.cqMem = nil
	if r.sqMem != nil {
		if err := unix.Munmap(r.sqMem); err != nil {
			merr = multierror.Append(merr, xerrors.Errorf("munmap sq ring: %w", err))
		}
		r.sqMem = nil
	}
	if r.fd >= 0 {
		if err := unix.Close(r.fd); err != nil {
			merr = multierror.Append(merr, xerrors.Errorf("close ring fd: %w", err))
		}
		r.fd = -1
	}

	return merr
}
