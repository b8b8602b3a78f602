package memory

import (
	"encoding/binary"
	"math/bits"
)

// BytesForBits returns the bytes needed to hold n bits.
func BytesForBits(n int) int { return (n + 7) / 8 }

// PaddedLength rounds n up to a multiple of align.
func PaddedLength(n, align int) int {
	return (n + align - 1) / align * align
}

// BitIsSet reports whether bit i is set. Bits are LSB-first within a byte.
func BitIsSet(b []byte, i int) bool { return b[i>>3]&(1<<uint(i&7)) != 0 }

// SetBit sets bit i.
func SetBit(b []byte, i int) { b[i>>3] |= 1 << uint(i&7) }

// ClearBit clears bit i.
func ClearBit(b []byte, i int) { b[i>>3] &^= 1 << uint(i&7) }

// SetBitTo sets bit i to v.
func SetBitTo(b []byte, i int, v bool) {
	if v {
		SetBit(b, i)
	} else {
		ClearBit(b, i)
	}
}

// CountSetBits counts set bits in [offset, offset+length).
func CountSetBits(b []byte, offset, length int) int {
	count := 0
	i := offset
	end := offset + length

	for ; i < end && i&7 != 0; i++ {
		if BitIsSet(b, i) {
			count++
		}
	}
	for ; i+64 <= end; i += 64 {
		count += bits.OnesCount64(binary.LittleEndian.Uint64(b[i>>3:]))
	}
	for ; i+8 <= end; i += 8 {
		count += bits.OnesCount8(b[i>>3])
	}
	for ; i < end; i++ {
		if BitIsSet(b, i) {
			count++
		}
	}
	return count
}

// CopyBitmap copies length bits starting at srcOffset into a fresh bitmap
// starting at bit zero.
func CopyBitmap(src []byte, srcOffset, length int) []byte {
	dst := make([]byte, BytesForBits(length))
	AppendBits(dst, 0, src, srcOffset, length)
	return dst
}

// AppendBits copies length bits from src at srcOffset into dst at dstOffset.
func AppendBits(dst []byte, dstOffset int, src []byte, srcOffset, length int) {
	if srcOffset&7 == 0 && dstOffset&7 == 0 {
		n := length / 8
		copy(dst[dstOffset>>3:], src[srcOffset>>3:srcOffset>>3+n])
		for i := n * 8; i < length; i++ {
			SetBitTo(dst, dstOffset+i, BitIsSet(src, srcOffset+i))
		}
		return
	}
	for i := 0; i < length; i++ {
		SetBitTo(dst, dstOffset+i, BitIsSet(src, srcOffset+i))
	}
}

// SetBitsTo sets length bits starting at offset to v.
func SetBitsTo(b []byte, offset, length int, v bool) {
	for i := offset; i < offset+length; i++ {
		SetBitTo(b, i, v)
	}
}
