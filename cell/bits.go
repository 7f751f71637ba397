// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package cell

// Bits within a byte are addressed most-significant-first: bit 0 of a buffer
// is the highest bit of its first byte.

// bitAt returns the bit at the given position.
func bitAt(data []byte, pos int) bool {
	return data[pos/8]>>(7-pos%8)&1 != 0
}

// setBit sets the bit at the given position.
func setBit(data []byte, pos int) {
	data[pos/8] |= 1 << (7 - pos%8)
}

// copyBits copies n bits from src starting at bit srcOff into dst starting at
// bit dstOff. The target bits must be zero before the call.
func copyBits(dst []byte, dstOff int, src []byte, srcOff, n int) {
	if n <= 0 {
		return
	}
	if dstOff%8 == 0 && srcOff%8 == 0 {
		full := n / 8
		copy(dst[dstOff/8:], src[srcOff/8:srcOff/8+full])
		if rest := n - full*8; rest > 0 {
			dst[dstOff/8+full] |= src[srcOff/8+full] &^ (0xff >> rest)
		}
		return
	}
	for i := range n {
		if bitAt(src, srcOff+i) {
			setBit(dst, dstOff+i)
		}
	}
}

// dataWithCompletionTag returns the payload padded to a whole number of bytes
// with a single 1 bit followed by 0 bits, as used on the wire and in hashing.
// Complete payloads are returned as a plain copy.
func dataWithCompletionTag(data []byte, bitLen int) []byte {
	res := make([]byte, (bitLen+7)/8)
	copy(res, data[:len(res)])
	if bitLen%8 != 0 {
		res[len(res)-1] |= 1 << (7 - bitLen%8)
	}
	return res
}
