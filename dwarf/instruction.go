package dwarf

import (
	"fmt"
)

// InstructionKind tags which of the ~40 DWARF expression operation shapes an
// Instruction carries.
type InstructionKind int

const (
	InstrDeref InstructionKind = iota
	InstrPick
	InstrDrop
	InstrSwap
	InstrRot
	InstrAbs
	InstrAnd
	InstrDiv
	InstrMinus
	InstrMod
	InstrMul
	InstrNeg
	InstrNot
	InstrOr
	InstrPlus
	InstrShl
	InstrShr
	InstrShra
	InstrXor
	InstrEq
	InstrGe
	InstrGt
	InstrLe
	InstrLt
	InstrNe
	InstrNop
	InstrPlusConstant
	InstrBra
	InstrSkip
	InstrLiteral
	InstrRegister
	InstrRegisterOffset
	InstrFrameOffset
	InstrPushObjectAddress
	InstrCall
	InstrTLS
	InstrCallFrameCFA
	InstrPiece
	InstrImplicitValue
	InstrStackValue
	InstrImplicitPointer
	InstrEntryValue
	InstrParameterRef
	InstrAddress
	InstrTypedLiteral
	InstrConvert
	InstrReinterpret
)

// Instruction is the decoded form of a single expression opcode plus its
// immediate operands. Only the fields relevant to Kind are populated; this
// mirrors a tagged union via a discriminated Kind field rather than Go
// interface polymorphism, since the set of operation shapes is closed.
type Instruction struct {
	Kind InstructionKind

	// Deref
	BaseType uint64
	Size     int
	Space    bool

	// Pick
	Index uint8

	// PlusConstant, Literal, Address
	Value uint64

	// Bra, Skip: the pre-resolved branch target, already validated against
	// the bytecode's bounds.
	Target *Cursor

	// Register, RegisterOffset
	Register RegisterId
	Offset   int64 // RegisterOffset, FrameOffset, ImplicitPointer byte_offset

	// Call
	Callee DieReference

	// Piece
	SizeInBits uint64
	BitOffset  *uint64

	// ImplicitValue, EntryValue, TypedLiteral
	Data []byte
}

// DecodeInstruction reads one opcode byte and its operands from cursor,
// advancing it past them, and returns the decoded Instruction. base is the
// start of the containing expression's bytecode (used to resolve Bra/Skip
// targets); addressSize and format parameterize address- and offset-width
// operand reads.
func DecodeInstruction(
	cursor *Cursor,
	base *Cursor,
	addressSize int,
	format DwarfFormat,
) (
	Instruction,
	error,
) {
	opcodeByte, err := cursor.U8()
	if err != nil {
		return Instruction{}, fmt.Errorf("%w: %s", ErrUnexpectedEOF, err)
	}
	opcode := Operation(opcodeByte)

	switch {
	case DW_OP_lit0 <= opcode && opcode <= DW_OP_lit31:
		return Instruction{Kind: InstrLiteral, Value: uint64(opcode - DW_OP_lit0)}, nil

	case opcode == DW_OP_const1u:
		v, err := cursor.U8()
		return Instruction{Kind: InstrLiteral, Value: uint64(v)}, decodeErr(err)
	case opcode == DW_OP_const1s:
		v, err := cursor.S8()
		return Instruction{Kind: InstrLiteral, Value: uint64(v)}, decodeErr(err)
	case opcode == DW_OP_const2u:
		v, err := cursor.U16()
		return Instruction{Kind: InstrLiteral, Value: uint64(v)}, decodeErr(err)
	case opcode == DW_OP_const2s:
		v, err := cursor.S16()
		return Instruction{Kind: InstrLiteral, Value: uint64(v)}, decodeErr(err)
	case opcode == DW_OP_const4u:
		v, err := cursor.U32()
		return Instruction{Kind: InstrLiteral, Value: uint64(v)}, decodeErr(err)
	case opcode == DW_OP_const4s:
		v, err := cursor.S32()
		return Instruction{Kind: InstrLiteral, Value: uint64(v)}, decodeErr(err)
	case opcode == DW_OP_const8u:
		v, err := cursor.U64()
		return Instruction{Kind: InstrLiteral, Value: v}, decodeErr(err)
	case opcode == DW_OP_const8s:
		v, err := cursor.S64()
		return Instruction{Kind: InstrLiteral, Value: uint64(v)}, decodeErr(err)
	case opcode == DW_OP_constu:
		v, err := cursor.ULEB128(64)
		return Instruction{Kind: InstrLiteral, Value: v}, decodeErr(err)
	case opcode == DW_OP_consts:
		v, err := cursor.SLEB128(64)
		return Instruction{Kind: InstrLiteral, Value: uint64(v)}, decodeErr(err)

	case opcode == DW_OP_addr:
		v, err := cursor.ReadAddress(addressSize)
		return Instruction{Kind: InstrAddress, Value: v}, decodeErr(err)

	case DW_OP_reg0 <= opcode && opcode <= DW_OP_reg31:
		return Instruction{Kind: InstrRegister, Register: RegisterId(opcode - DW_OP_reg0)}, nil
	case opcode == DW_OP_regx:
		v, err := cursor.ULEB128(64)
		return Instruction{Kind: InstrRegister, Register: RegisterId(v)}, decodeErr(err)

	case DW_OP_breg0 <= opcode && opcode <= DW_OP_breg31:
		offset, err := cursor.SLEB128(64)
		return Instruction{
			Kind:     InstrRegisterOffset,
			Register: RegisterId(opcode - DW_OP_breg0),
			Offset:   offset,
		}, decodeErr(err)
	case opcode == DW_OP_bregx:
		reg, err := cursor.ULEB128(64)
		if err != nil {
			return Instruction{}, decodeErr(err)
		}
		offset, err := cursor.SLEB128(64)
		return Instruction{
			Kind:     InstrRegisterOffset,
			Register: RegisterId(reg),
			Offset:   offset,
		}, decodeErr(err)
	case opcode == DW_OP_regval_type || opcode == DW_OP_GNU_regval_type:
		reg, err := cursor.ULEB128(64)
		if err != nil {
			return Instruction{}, decodeErr(err)
		}
		baseType, err := cursor.ULEB128(64)
		return Instruction{
			Kind:     InstrRegisterOffset,
			Register: RegisterId(reg),
			Offset:   0,
			BaseType: baseType,
		}, decodeErr(err)

	case opcode == DW_OP_fbreg:
		offset, err := cursor.SLEB128(64)
		return Instruction{Kind: InstrFrameOffset, Offset: offset}, decodeErr(err)

	case opcode == DW_OP_deref:
		return Instruction{Kind: InstrDeref, Size: addressSize}, nil
	case opcode == DW_OP_xderef:
		return Instruction{Kind: InstrDeref, Size: addressSize, Space: true}, nil
	case opcode == DW_OP_deref_size:
		size, err := cursor.U8()
		return Instruction{Kind: InstrDeref, Size: int(size)}, decodeErr(err)
	case opcode == DW_OP_xderef_size:
		size, err := cursor.U8()
		return Instruction{Kind: InstrDeref, Size: int(size), Space: true}, decodeErr(err)
	case opcode == DW_OP_deref_type || opcode == DW_OP_GNU_deref_type:
		baseType, err := cursor.ULEB128(64)
		if err != nil {
			return Instruction{}, decodeErr(err)
		}
		size, err := cursor.U8()
		return Instruction{Kind: InstrDeref, Size: int(size), BaseType: baseType}, decodeErr(err)
	case opcode == DW_OP_xderef_type:
		baseType, err := cursor.ULEB128(64)
		if err != nil {
			return Instruction{}, decodeErr(err)
		}
		size, err := cursor.U8()
		return Instruction{
			Kind:     InstrDeref,
			Size:     int(size),
			BaseType: baseType,
			Space:    true,
		}, decodeErr(err)

	case opcode == DW_OP_dup:
		return Instruction{Kind: InstrPick, Index: 0}, nil
	case opcode == DW_OP_over:
		return Instruction{Kind: InstrPick, Index: 1}, nil
	case opcode == DW_OP_pick:
		idx, err := cursor.U8()
		return Instruction{Kind: InstrPick, Index: idx}, decodeErr(err)
	case opcode == DW_OP_drop:
		return Instruction{Kind: InstrDrop}, nil
	case opcode == DW_OP_swap:
		return Instruction{Kind: InstrSwap}, nil
	case opcode == DW_OP_rot:
		return Instruction{Kind: InstrRot}, nil

	case opcode == DW_OP_abs:
		return Instruction{Kind: InstrAbs}, nil
	case opcode == DW_OP_and:
		return Instruction{Kind: InstrAnd}, nil
	case opcode == DW_OP_div:
		return Instruction{Kind: InstrDiv}, nil
	case opcode == DW_OP_minus:
		return Instruction{Kind: InstrMinus}, nil
	case opcode == DW_OP_mod:
		return Instruction{Kind: InstrMod}, nil
	case opcode == DW_OP_mul:
		return Instruction{Kind: InstrMul}, nil
	case opcode == DW_OP_neg:
		return Instruction{Kind: InstrNeg}, nil
	case opcode == DW_OP_not:
		return Instruction{Kind: InstrNot}, nil
	case opcode == DW_OP_or:
		return Instruction{Kind: InstrOr}, nil
	case opcode == DW_OP_plus:
		return Instruction{Kind: InstrPlus}, nil
	case opcode == DW_OP_shl:
		return Instruction{Kind: InstrShl}, nil
	case opcode == DW_OP_shr:
		return Instruction{Kind: InstrShr}, nil
	case opcode == DW_OP_shra:
		return Instruction{Kind: InstrShra}, nil
	case opcode == DW_OP_xor:
		return Instruction{Kind: InstrXor}, nil
	case opcode == DW_OP_eq:
		return Instruction{Kind: InstrEq}, nil
	case opcode == DW_OP_ge:
		return Instruction{Kind: InstrGe}, nil
	case opcode == DW_OP_gt:
		return Instruction{Kind: InstrGt}, nil
	case opcode == DW_OP_le:
		return Instruction{Kind: InstrLe}, nil
	case opcode == DW_OP_lt:
		return Instruction{Kind: InstrLt}, nil
	case opcode == DW_OP_ne:
		return Instruction{Kind: InstrNe}, nil
	case opcode == DW_OP_nop:
		return Instruction{Kind: InstrNop}, nil

	case opcode == DW_OP_plus_uconst:
		v, err := cursor.ULEB128(64)
		return Instruction{Kind: InstrPlusConstant, Value: v}, decodeErr(err)

	case opcode == DW_OP_bra:
		target, err := readBranchTarget(cursor, base)
		return Instruction{Kind: InstrBra, Target: target}, err
	case opcode == DW_OP_skip:
		target, err := readBranchTarget(cursor, base)
		return Instruction{Kind: InstrSkip, Target: target}, err

	case opcode == DW_OP_piece:
		byteSize, err := cursor.ULEB128(64)
		return Instruction{Kind: InstrPiece, SizeInBits: 8 * byteSize}, decodeErr(err)
	case opcode == DW_OP_bit_piece:
		bitSize, err := cursor.ULEB128(64)
		if err != nil {
			return Instruction{}, decodeErr(err)
		}
		bitOffset, err := cursor.ULEB128(64)
		if err != nil {
			return Instruction{}, decodeErr(err)
		}
		return Instruction{Kind: InstrPiece, SizeInBits: bitSize, BitOffset: &bitOffset}, nil

	case opcode == DW_OP_call2:
		v, err := cursor.U16()
		return Instruction{
			Kind:   InstrCall,
			Callee: DieReference{Kind: UnitRef, Offset: SectionOffset(v)},
		}, decodeErr(err)
	case opcode == DW_OP_call4:
		v, err := cursor.U32()
		return Instruction{
			Kind:   InstrCall,
			Callee: DieReference{Kind: UnitRef, Offset: SectionOffset(v)},
		}, decodeErr(err)
	case opcode == DW_OP_call_ref:
		v, err := cursor.ReadOffset(format)
		return Instruction{
			Kind:   InstrCall,
			Callee: DieReference{Kind: DebugInfoRef, Offset: SectionOffset(v)},
		}, decodeErr(err)

	case opcode == DW_OP_implicit_value:
		length, err := cursor.ULEB128(32)
		if err != nil {
			return Instruction{}, decodeErr(err)
		}
		data, err := cursor.Bytes(int(length))
		return Instruction{Kind: InstrImplicitValue, Data: data}, decodeErr(err)

	case opcode == DW_OP_implicit_pointer || opcode == DW_OP_GNU_implicit_pointer:
		offset, err := cursor.ReadOffset(format)
		if err != nil {
			return Instruction{}, decodeErr(err)
		}
		byteOffset, err := cursor.SLEB128(64)
		return Instruction{
			Kind:   InstrImplicitPointer,
			Value:  offset,
			Offset: byteOffset,
		}, decodeErr(err)

	case opcode == DW_OP_entry_value || opcode == DW_OP_GNU_entry_value:
		length, err := cursor.ULEB128(64)
		if err != nil {
			return Instruction{}, decodeErr(err)
		}
		data, err := cursor.Bytes(int(length))
		return Instruction{Kind: InstrEntryValue, Data: data}, decodeErr(err)

	case opcode == DW_OP_GNU_parameter_ref:
		offset, err := cursor.ULEB128(32)
		return Instruction{Kind: InstrParameterRef, Value: offset}, decodeErr(err)

	case opcode == DW_OP_const_type || opcode == DW_OP_GNU_const_type:
		baseType, err := cursor.ULEB128(64)
		if err != nil {
			return Instruction{}, decodeErr(err)
		}
		length, err := cursor.U8()
		if err != nil {
			return Instruction{}, decodeErr(err)
		}
		data, err := cursor.Bytes(int(length))
		return Instruction{
			Kind:     InstrTypedLiteral,
			BaseType: baseType,
			Data:     data,
		}, decodeErr(err)

	case opcode == DW_OP_convert || opcode == DW_OP_GNU_convert:
		baseType, err := cursor.ULEB128(64)
		return Instruction{Kind: InstrConvert, BaseType: baseType}, decodeErr(err)
	case opcode == DW_OP_reinterpret || opcode == DW_OP_GNU_reinterpret:
		baseType, err := cursor.ULEB128(64)
		return Instruction{Kind: InstrReinterpret, BaseType: baseType}, decodeErr(err)

	case opcode == DW_OP_form_tls_address || opcode == DW_OP_GNU_push_tls_address:
		return Instruction{Kind: InstrTLS}, nil

	case opcode == DW_OP_call_frame_cfa:
		return Instruction{Kind: InstrCallFrameCFA}, nil

	case opcode == DW_OP_push_object_address:
		return Instruction{Kind: InstrPushObjectAddress}, nil

	case opcode == DW_OP_stack_value:
		return Instruction{Kind: InstrStackValue}, nil

	default:
		return Instruction{}, fmt.Errorf("%w: %#x", ErrInvalidExpression, opcodeByte)
	}
}

func decodeErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnexpectedEOF, err)
}

// readBranchTarget reads a signed 16-bit delta and resolves it to a target
// cursor via computePC.
func readBranchTarget(cursor *Cursor, base *Cursor) (*Cursor, error) {
	delta, err := cursor.S16()
	if err != nil {
		return nil, decodeErr(err)
	}
	return computePC(cursor, base, int(delta))
}

// computePC resolves a branch delta relative to cursor's current position
// (which already accounts for the 2 bytes of the delta operand itself) into
// a cloned cursor positioned at the target. Branching to exactly base.Len()
// (the byte past the last operation) is legal and produces an empty cursor;
// only strictly-greater targets are rejected.
func computePC(cursor *Cursor, base *Cursor, delta int) (*Cursor, error) {
	cur := cursor.OffsetFrom(base)
	target := cur + delta

	if target < 0 || target > len(base.Content) {
		return nil, fmt.Errorf("%w: %d", ErrBadBranchTarget, target)
	}

	result := base.Clone()
	result.Position = target
	return result, nil
}
