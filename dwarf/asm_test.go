package dwarf

import "encoding/binary"

// asm is a tiny internal bytecode assembler for building raw DWARF
// expression byte streams in tests, the same byte-at-a-time approach
// cursor.go's decoder consumes. Not exported: this subsystem has no wire
// format of its own to expose, only the opcodes DWARF already defines.
type asm struct {
	order binary.ByteOrder
	buf   []byte
}

func newAsm() *asm {
	return &asm{order: binary.LittleEndian}
}

func (a *asm) bytes() []byte {
	return a.buf
}

func (a *asm) op(code byte) *asm {
	a.buf = append(a.buf, code)
	return a
}

func (a *asm) u8(v uint8) *asm {
	a.buf = append(a.buf, v)
	return a
}

func (a *asm) u16(v uint16) *asm {
	var tmp [2]byte
	a.order.PutUint16(tmp[:], v)
	a.buf = append(a.buf, tmp[:]...)
	return a
}

func (a *asm) u32(v uint32) *asm {
	var tmp [4]byte
	a.order.PutUint32(tmp[:], v)
	a.buf = append(a.buf, tmp[:]...)
	return a
}

func (a *asm) u64(v uint64) *asm {
	var tmp [8]byte
	a.order.PutUint64(tmp[:], v)
	a.buf = append(a.buf, tmp[:]...)
	return a
}

func (a *asm) raw(data []byte) *asm {
	a.buf = append(a.buf, data...)
	return a
}

func (a *asm) uleb(v uint64) *asm {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		a.buf = append(a.buf, b)
		if v == 0 {
			return a
		}
	}
}

func (a *asm) sleb(v int64) *asm {
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		a.buf = append(a.buf, b)
	}
	return a
}

// Convenience builders for the operations exercised in evaluator_test.go.

func (a *asm) lit(n int) *asm {
	return a.op(byte(DW_OP_lit0 + n))
}

func (a *asm) constu(v uint64) *asm {
	return a.op(DW_OP_constu).uleb(v)
}

func (a *asm) consts(v int64) *asm {
	return a.op(DW_OP_consts).sleb(v)
}

func (a *asm) reg(n int) *asm {
	return a.op(byte(DW_OP_reg0 + n))
}

func (a *asm) breg(n int, offset int64) *asm {
	return a.op(byte(DW_OP_breg0 + n)).sleb(offset)
}

func (a *asm) bregx(n uint64, offset int64) *asm {
	return a.op(DW_OP_bregx).uleb(n).sleb(offset)
}

func (a *asm) piece(byteSize uint64) *asm {
	return a.op(DW_OP_piece).uleb(byteSize)
}

func (a *asm) bitPiece(bitSize, bitOffset uint64) *asm {
	return a.op(DW_OP_bit_piece).uleb(bitSize).uleb(bitOffset)
}

func (a *asm) implicitValue(data []byte) *asm {
	return a.op(DW_OP_implicit_value).uleb(uint64(len(data))).raw(data)
}

// skipPlaceholder/braPlaceholder patch a signed 2-byte relative offset
// once the target is known, mirroring how an assembler resolves labels.

func (a *asm) skipPlaceholder() (patch func(target int)) {
	a.op(DW_OP_skip)
	at := len(a.buf)
	a.u16(0)
	return func(target int) {
		a.order.PutUint16(a.buf[at:at+2], uint16(int16(target-(at+2))))
	}
}

func (a *asm) braPlaceholder() (patch func(target int)) {
	a.op(DW_OP_bra)
	at := len(a.buf)
	a.u16(0)
	return func(target int) {
		a.order.PutUint16(a.buf[at:at+2], uint16(int16(target-(at+2))))
	}
}
