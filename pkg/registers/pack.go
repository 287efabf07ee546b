// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package registers

// SplitU32 returns the two register values the device expects for a u32:
// value&0xFFFF and value>>8. hi only fits a register when value <= MaxU32Value.
func SplitU32(value uint32) (lo uint16, hi uint32) {
	return uint16(value & 0xFFFF), value >> 8
}

// PackString packs text into registers, two bytes each: the even-indexed
// byte goes to the low half, the odd-indexed byte to the high half. An odd
// trailing byte leaves a zero high half. Returns the buffer and the number
// of registers used.
func PackString(text string) ([StringRegisters]uint16, int, error) {
	var regs [StringRegisters]uint16

	if len(text) > StringBytes {
		return regs, 0, &RangeError{Kind: KindString, Value: int64(len(text)), Max: StringBytes}
	}

	for i := 0; i < len(text); i++ {
		if i%2 == 0 {
			regs[i/2] = uint16(text[i])
		} else {
			regs[i/2] |= uint16(text[i]) << 8
		}
	}
	return regs, (len(text) + 1) / 2, nil
}

// UnpackRegister splits a packed register into its two bytes.
func UnpackRegister(reg uint16) (lo, hi byte) {
	return byte(reg & 0xFF), byte(reg >> 8)
}

// UnpackString reverses PackString. The result is 2*len(regs) bytes long and
// keeps any NUL padding.
func UnpackString(regs []uint16) string {
	buf := make([]byte, 0, len(regs)*2)
	for _, reg := range regs {
		lo, hi := UnpackRegister(reg)
		buf = append(buf, lo, hi)
	}
	return string(buf)
}
