package uringscan

// io_uring feature bits as reported in io_uring_params.features. These values
// are part of the kernel's stable ABI (include/uapi/linux/io_uring.h) and are
// current as of kernel 6.1. Bits the kernel reports that are not listed here
// decode to nothing rather than an error, so newer kernels degrade
// gracefully.
var featureTable = []struct {
	bit  uint32
	name FeatureFlag
}{
	{1 << 0, "IORING_FEAT_SINGLE_MMAP"},
	{1 << 1, "IORING_FEAT_NODROP"},
	{1 << 2, "IORING_FEAT_SUBMIT_STABLE"},
	{1 << 3, "IORING_FEAT_RW_CUR_POS"},
	{1 << 4, "IORING_FEAT_CUR_PERSONALITY"},
	{1 << 5, "IORING_FEAT_FAST_POLL"},
	{1 << 6, "IORING_FEAT_POLL_32BITS"},
	{1 << 7, "IORING_FEAT_SQPOLL_NONFIXED"},
	{1 << 8, "IORING_FEAT_EXT_ARG"},
	{1 << 9, "IORING_FEAT_NATIVE_WORKERS"},
	{1 << 10, "IORING_FEAT_RSRC_TAGS"},
	{1 << 11, "IORING_FEAT_CQE_SKIP"},
	{1 << 12, "IORING_FEAT_LINKED_FILE"},
	{1 << 13, "IORING_FEAT_REG_REG_RING"},
}

// decodeFeatures maps a kernel feature bitmask to symbolic flags, in bit
// order. Unknown bits are ignored.
func decodeFeatures(mask uint32) []FeatureFlag {
	var flags []FeatureFlag
	for _, f := range featureTable {
		if mask&f.bit != 0 {
			flags = append(flags, f.name)
		}
	}
	return flags
}
