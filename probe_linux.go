//go:build linux
// +build linux

package uringscan

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// These structs must match the kernel's io_uring_params layout in
// include/uapi/linux/io_uring.h, which is stable ABI.
type sqRingOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Flags       uint32
	Dropped     uint32
	Array       uint32
	Resv1       uint32
	Resv2       uint64
}

type cqRingOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Overflow    uint32
	Cqes        uint32
	Flags       uint32
	Resv1       uint32
	Resv2       uint64
}

type ringParams struct {
	SQEntries    uint32
	CQEntries    uint32
	Flags        uint32
	SQThreadCPU  uint32
	SQThreadIdle uint32
	Features     uint32
	WQFd         uint32
	Resv         [3]uint32
	SQOff        sqRingOffsets
	CQOff        cqRingOffsets
}

const (
	// probeEntries is the queue depth used for the capability probe. The
	// ring exists only long enough to read the feature mask, so the
	// smallest possible ring will do.
	probeEntries = 1

	// ioringRegisterProbe is the IORING_REGISTER_PROBE opcode for
	// io_uring_register(2), available since kernel 5.6.
	ioringRegisterProbe = 8

	// ioringOpSupported is set in probeOp.Flags for implemented opcodes.
	ioringOpSupported = 1 << 0

	// probeOpsLen is the size of the probe result array. 256 covers every
	// possible opcode value.
	probeOpsLen = 256
)

// probeOp and ringProbe must match the kernel's io_uring_probe_op and
// io_uring_probe layouts.
type probeOp struct {
	Op    uint8
	Resv  uint8
	Flags uint16
	Resv2 uint32
}

type ringProbe struct {
	LastOp uint8
	OpsLen uint8
	Resv   uint16
	Resv2  [3]uint32
	Ops    [probeOpsLen]probeOp
}

// probeKernel determines whether this kernel supports io_uring and which
// features it advertises, by creating and immediately destroying a minimal
// ring. Any setup failure means the interface is unusable here (absent,
// disabled, or blocked by seccomp); one failed attempt is conclusive since
// kernel capability does not change at runtime, so no error is surfaced.
func probeKernel() KernelCapabilities {
	var params ringParams
	fd, _, errno := unix.Syscall(unix.SYS_IO_URING_SETUP, probeEntries, uintptr(unsafe.Pointer(&params)), 0)
	if errno != 0 {
		return KernelCapabilities{}
	}

	caps := KernelCapabilities{
		Supported:   true,
		RawFeatures: params.Features,
		Features:    decodeFeatures(params.Features),
	}
	caps.Ops = probeOps(int(fd))

	_ = unix.Close(int(fd))
	return caps
}

// probeOps asks the kernel which io_uring opcodes it implements via
// IORING_REGISTER_PROBE on the given ring fd. Kernels older than 5.6 refuse
// the registration; that degrades to an empty list, not an error.
func probeOps(fd int) []string {
	var probe ringProbe
	_, _, errno := unix.Syscall6(
		unix.SYS_IO_URING_REGISTER,
		uintptr(fd),
		ioringRegisterProbe,
		uintptr(unsafe.Pointer(&probe)),
		probeOpsLen,
		0, 0,
	)
	if errno != 0 {
		return nil
	}

	var ops []string
	for i := 0; i < int(probe.OpsLen) && i < probeOpsLen; i++ {
		op := probe.Ops[i]
		if op.Flags&ioringOpSupported == 0 {
			continue
		}
		if int(op.Op) < len(opcodeNames) {
			ops = append(ops, opcodeNames[op.Op])
		} else {
			ops = append(ops, fmt.Sprintf("IORING_OP_%d", op.Op))
		}
	}
	return ops
}
