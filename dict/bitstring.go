// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package dict

// bitstring is an unpacked sequence of key bits, one bit per element. Keys
// and edge labels are short enough that the unpacked form is cheaper to work
// with than packed bytes with offset arithmetic.
type bitstring []uint8

// unpackBits expands the first bitLen bits of a packed buffer, most
// significant bit of each byte first.
func unpackBits(data []byte, bitLen int) bitstring {
	res := make(bitstring, bitLen)
	for i := range res {
		res[i] = data[i/8] >> (7 - i%8) & 1
	}
	return res
}

// packBits packs the bits into bytes, most significant bit first, with
// unused trailing bits zero.
func packBits(bits bitstring) []byte {
	res := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		res[i/8] |= b << (7 - i%8)
	}
	return res
}

// commonPrefixLen returns the length of the longest common prefix.
func commonPrefixLen(a, b bitstring) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// allBitsEqual reports whether the bitstring is a non-empty run of a single
// repeated bit.
func allBitsEqual(bits bitstring) bool {
	if len(bits) == 0 {
		return false
	}
	for _, b := range bits {
		if b != bits[0] {
			return false
		}
	}
	return true
}

// concat returns the concatenation of the given bitstrings as a fresh
// bitstring.
func concat(parts ...bitstring) bitstring {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	res := make(bitstring, 0, size)
	for _, p := range parts {
		res = append(res, p...)
	}
	return res
}
