package format

// Alignment utilities for the DEX layout pass.
// Id sections, type lists, annotation sets, directories, code items and the
// map list start on 4-byte boundaries; everything else is byte aligned.

// Align4 returns n aligned up to the next 4-byte boundary.
//
// Example:
//
//	Align4(1) = 4
//	Align4(4) = 4
//	Align4(5) = 8
func Align4(n int) int {
	return (n + DexAlignmentMask) & ^DexAlignmentMask
}

// AlignTo returns n aligned up to a power-of-two boundary. An alignment of
// 0 or 1 returns n unchanged.
func AlignTo(n, alignment int) int {
	if alignment <= 1 {
		return n
	}
	mask := alignment - 1
	return (n + mask) & ^mask
}
