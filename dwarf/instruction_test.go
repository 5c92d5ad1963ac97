package dwarf

import (
	"errors"
	"testing"

	"github.com/pattyshack/gt/testing/expect"
	"github.com/pattyshack/gt/testing/suite"
)

type InstructionSuite struct{}

func TestInstruction(t *testing.T) {
	suite.RunTests(t, &InstructionSuite{})
}

// decodeOne decodes a single instruction from a's bytes against a fresh
// base cursor (so OffsetFrom/branch targets resolve against byte 0).
func decodeOne(
	a *asm,
	addressSize int,
	format DwarfFormat,
) (
	Instruction,
	error,
) {
	base := NewCursor(a.order, a.bytes())
	cursor := base.Clone()
	return DecodeInstruction(cursor, base, addressSize, format)
}

func (InstructionSuite) TestLiteral(t *testing.T) {
	instr, err := decodeOne(newAsm().lit(17), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrLiteral, instr.Kind)
	expect.Equal(t, uint64(17), instr.Value)
}

func (InstructionSuite) TestConstu(t *testing.T) {
	instr, err := decodeOne(newAsm().constu(0xdeadbeef), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrLiteral, instr.Kind)
	expect.Equal(t, uint64(0xdeadbeef), instr.Value)
}

func (InstructionSuite) TestConsts(t *testing.T) {
	instr, err := decodeOne(newAsm().consts(-5), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrLiteral, instr.Kind)
	expect.Equal(t, uint64(int64(-5)), instr.Value)
}

func (InstructionSuite) TestAddress(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_addr).u64(0x400000), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrAddress, instr.Kind)
	expect.Equal(t, uint64(0x400000), instr.Value)
}

func (InstructionSuite) TestAddressSmallWidth(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_addr).u32(0x1234), 4, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrAddress, instr.Kind)
	expect.Equal(t, uint64(0x1234), instr.Value)
}

func (InstructionSuite) TestRegister(t *testing.T) {
	instr, err := decodeOne(newAsm().reg(5), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrRegister, instr.Kind)
	expect.Equal(t, RegisterId(5), instr.Register)
}

func (InstructionSuite) TestRegx(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_regx).uleb(200), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrRegister, instr.Kind)
	expect.Equal(t, RegisterId(200), instr.Register)
}

func (InstructionSuite) TestRegisterOffset(t *testing.T) {
	instr, err := decodeOne(newAsm().breg(2, -8), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrRegisterOffset, instr.Kind)
	expect.Equal(t, RegisterId(2), instr.Register)
	expect.Equal(t, int64(-8), instr.Offset)
}

func (InstructionSuite) TestBregx(t *testing.T) {
	instr, err := decodeOne(newAsm().bregx(9, 16), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrRegisterOffset, instr.Kind)
	expect.Equal(t, RegisterId(9), instr.Register)
	expect.Equal(t, int64(16), instr.Offset)
}

func (InstructionSuite) TestRegvalType(t *testing.T) {
	instr, err := decodeOne(
		newAsm().op(DW_OP_regval_type).uleb(4).uleb(11),
		8,
		Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrRegisterOffset, instr.Kind)
	expect.Equal(t, RegisterId(4), instr.Register)
	expect.Equal(t, uint64(11), instr.BaseType)
}

func (InstructionSuite) TestFrameOffset(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_fbreg).sleb(-24), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrFrameOffset, instr.Kind)
	expect.Equal(t, int64(-24), instr.Offset)
}

func (InstructionSuite) TestDeref(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_deref), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrDeref, instr.Kind)
	expect.Equal(t, 8, instr.Size)
	expect.False(t, instr.Space)
}

func (InstructionSuite) TestXderef(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_xderef), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrDeref, instr.Kind)
	expect.Equal(t, 8, instr.Size)
	expect.True(t, instr.Space)
}

func (InstructionSuite) TestDerefSize(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_deref_size).u8(2), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrDeref, instr.Kind)
	expect.Equal(t, 2, instr.Size)
}

func (InstructionSuite) TestDerefType(t *testing.T) {
	instr, err := decodeOne(
		newAsm().op(DW_OP_deref_type).uleb(3).u8(4),
		8,
		Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrDeref, instr.Kind)
	expect.Equal(t, 4, instr.Size)
	expect.Equal(t, uint64(3), instr.BaseType)
	expect.False(t, instr.Space)
}

func (InstructionSuite) TestXderefType(t *testing.T) {
	instr, err := decodeOne(
		newAsm().op(DW_OP_xderef_type).uleb(3).u8(4),
		8,
		Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrDeref, instr.Kind)
	expect.Equal(t, 4, instr.Size)
	expect.Equal(t, uint64(3), instr.BaseType)
	expect.True(t, instr.Space)
}

func (InstructionSuite) TestDup(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_dup), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrPick, instr.Kind)
	expect.Equal(t, uint8(0), instr.Index)
}

func (InstructionSuite) TestOver(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_over), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrPick, instr.Kind)
	expect.Equal(t, uint8(1), instr.Index)
}

func (InstructionSuite) TestPick(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_pick).u8(3), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrPick, instr.Kind)
	expect.Equal(t, uint8(3), instr.Index)
}

func (InstructionSuite) TestPiece(t *testing.T) {
	instr, err := decodeOne(newAsm().piece(4), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrPiece, instr.Kind)
	expect.Equal(t, uint64(32), instr.SizeInBits)
	expect.Nil(t, instr.BitOffset)
}

func (InstructionSuite) TestBitPiece(t *testing.T) {
	instr, err := decodeOne(newAsm().bitPiece(12, 4), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrPiece, instr.Kind)
	expect.Equal(t, uint64(12), instr.SizeInBits)
	expect.NotNil(t, instr.BitOffset)
	expect.Equal(t, uint64(4), *instr.BitOffset)
}

func (InstructionSuite) TestCall2(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_call2).u16(0x100), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrCall, instr.Kind)
	expect.Equal(t, UnitRef, instr.Callee.Kind)
	expect.Equal(t, SectionOffset(0x100), instr.Callee.Offset)
}

func (InstructionSuite) TestCall4(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_call4).u32(0x10000), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrCall, instr.Kind)
	expect.Equal(t, UnitRef, instr.Callee.Kind)
	expect.Equal(t, SectionOffset(0x10000), instr.Callee.Offset)
}

func (InstructionSuite) TestCallRef32(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_call_ref).u32(0x222), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrCall, instr.Kind)
	expect.Equal(t, DebugInfoRef, instr.Callee.Kind)
	expect.Equal(t, SectionOffset(0x222), instr.Callee.Offset)
}

func (InstructionSuite) TestCallRef64(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_call_ref).u64(0x333), 8, Dwarf64)
	expect.Nil(t, err)
	expect.Equal(t, InstrCall, instr.Kind)
	expect.Equal(t, DebugInfoRef, instr.Callee.Kind)
	expect.Equal(t, SectionOffset(0x333), instr.Callee.Offset)
}

func (InstructionSuite) TestImplicitValue(t *testing.T) {
	instr, err := decodeOne(
		newAsm().implicitValue([]byte{9, 8, 7}),
		8,
		Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrImplicitValue, instr.Kind)
	expect.Equal(t, []byte{9, 8, 7}, instr.Data)
}

func (InstructionSuite) TestImplicitPointer(t *testing.T) {
	instr, err := decodeOne(
		newAsm().op(DW_OP_implicit_pointer).u32(0x55).sleb(-4),
		8,
		Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrImplicitPointer, instr.Kind)
	expect.Equal(t, uint64(0x55), instr.Value)
	expect.Equal(t, int64(-4), instr.Offset)
}

func (InstructionSuite) TestEntryValue(t *testing.T) {
	instr, err := decodeOne(
		newAsm().op(DW_OP_entry_value).uleb(2).raw([]byte{1, 2}),
		8,
		Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrEntryValue, instr.Kind)
	expect.Equal(t, []byte{1, 2}, instr.Data)
}

func (InstructionSuite) TestParameterRef(t *testing.T) {
	instr, err := decodeOne(
		newAsm().op(DW_OP_GNU_parameter_ref).uleb(0x77),
		8,
		Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrParameterRef, instr.Kind)
	expect.Equal(t, uint64(0x77), instr.Value)
}

func (InstructionSuite) TestConstType(t *testing.T) {
	instr, err := decodeOne(
		newAsm().op(DW_OP_const_type).uleb(6).u8(2).u16(0xabcd),
		8,
		Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrTypedLiteral, instr.Kind)
	expect.Equal(t, uint64(6), instr.BaseType)
	expect.Equal(t, 2, len(instr.Data))
}

func (InstructionSuite) TestConvert(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_convert).uleb(12), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrConvert, instr.Kind)
	expect.Equal(t, uint64(12), instr.BaseType)
}

func (InstructionSuite) TestReinterpret(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_reinterpret).uleb(13), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrReinterpret, instr.Kind)
	expect.Equal(t, uint64(13), instr.BaseType)
}

func (InstructionSuite) TestTLS(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_form_tls_address), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrTLS, instr.Kind)
}

func (InstructionSuite) TestCallFrameCFA(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_call_frame_cfa), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrCallFrameCFA, instr.Kind)
}

func (InstructionSuite) TestPushObjectAddress(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_push_object_address), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrPushObjectAddress, instr.Kind)
}

func (InstructionSuite) TestStackValue(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_stack_value), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrStackValue, instr.Kind)
}

func (InstructionSuite) TestSkipTarget(t *testing.T) {
	a := newAsm()
	patch := a.skipPlaceholder()
	a.lit(9)
	target := len(a.bytes())
	patch(target)

	base := NewCursor(a.order, a.bytes())
	cursor := base.Clone()
	instr, err := DecodeInstruction(cursor, base, 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrSkip, instr.Kind)
	expect.NotNil(t, instr.Target)
	expect.Equal(t, target, instr.Target.Position)
}

func (InstructionSuite) TestBraTarget(t *testing.T) {
	a := newAsm()
	patch := a.braPlaceholder()
	a.lit(1).lit(2)
	target := len(a.bytes())
	patch(target)

	base := NewCursor(a.order, a.bytes())
	cursor := base.Clone()
	instr, err := DecodeInstruction(cursor, base, 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrBra, instr.Kind)
	expect.NotNil(t, instr.Target)
	expect.Equal(t, target, instr.Target.Position)
}

func (InstructionSuite) TestSkipToEndOfBytecodeIsLegal(t *testing.T) {
	a := newAsm()
	patch := a.skipPlaceholder()
	patch(len(a.bytes()))

	base := NewCursor(a.order, a.bytes())
	cursor := base.Clone()
	instr, err := DecodeInstruction(cursor, base, 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrSkip, instr.Kind)
	expect.True(t, instr.Target.HasReachedEnd())
}

func (InstructionSuite) TestBranchTargetOutOfBounds(t *testing.T) {
	a := newAsm()
	patch := a.skipPlaceholder()
	patch(len(a.bytes()) + 100)

	base := NewCursor(a.order, a.bytes())
	cursor := base.Clone()
	_, err := DecodeInstruction(cursor, base, 8, Dwarf32)
	expect.Error(t, err, "branch target out of bounds")
	expect.True(t, errors.Is(err, ErrBadBranchTarget))
}

func (InstructionSuite) TestBranchTargetNegative(t *testing.T) {
	// a negative resolved target is always out of bounds, regardless of
	// where in the bytecode the branch instruction itself sits.
	a := newAsm().raw([]byte{0, 0, 0})
	skipStart := len(a.bytes())
	patch := a.skipPlaceholder()
	patch(-100)

	base := NewCursor(a.order, a.bytes())
	cursor := base.Clone()
	cursor.Position = skipStart
	_, err := DecodeInstruction(cursor, base, 8, Dwarf32)
	expect.Error(t, err, "branch target out of bounds")
	expect.True(t, errors.Is(err, ErrBadBranchTarget))
}

func (InstructionSuite) TestArithmeticOpcodes(t *testing.T) {
	cases := []struct {
		opcode byte
		kind   InstructionKind
	}{
		{DW_OP_abs, InstrAbs},
		{DW_OP_and, InstrAnd},
		{DW_OP_div, InstrDiv},
		{DW_OP_minus, InstrMinus},
		{DW_OP_mod, InstrMod},
		{DW_OP_mul, InstrMul},
		{DW_OP_neg, InstrNeg},
		{DW_OP_not, InstrNot},
		{DW_OP_or, InstrOr},
		{DW_OP_plus, InstrPlus},
		{DW_OP_shl, InstrShl},
		{DW_OP_shr, InstrShr},
		{DW_OP_shra, InstrShra},
		{DW_OP_xor, InstrXor},
		{DW_OP_eq, InstrEq},
		{DW_OP_ge, InstrGe},
		{DW_OP_gt, InstrGt},
		{DW_OP_le, InstrLe},
		{DW_OP_lt, InstrLt},
		{DW_OP_ne, InstrNe},
		{DW_OP_nop, InstrNop},
		{DW_OP_drop, InstrDrop},
		{DW_OP_swap, InstrSwap},
		{DW_OP_rot, InstrRot},
	}

	for _, c := range cases {
		instr, err := decodeOne(newAsm().op(c.opcode), 8, Dwarf32)
		expect.Nil(t, err)
		expect.Equal(t, c.kind, instr.Kind)
	}
}

func (InstructionSuite) TestPlusUconst(t *testing.T) {
	instr, err := decodeOne(newAsm().op(DW_OP_plus_uconst).uleb(42), 8, Dwarf32)
	expect.Nil(t, err)
	expect.Equal(t, InstrPlusConstant, instr.Kind)
	expect.Equal(t, uint64(42), instr.Value)
}

func (InstructionSuite) TestInvalidOpcode(t *testing.T) {
	_, err := decodeOne(newAsm().u8(0x01), 8, Dwarf32)
	expect.Error(t, err, "invalid expression opcode")
	expect.True(t, errors.Is(err, ErrInvalidExpression))
}

func (InstructionSuite) TestTruncatedOperand(t *testing.T) {
	_, err := decodeOne(newAsm().op(DW_OP_const1u), 8, Dwarf32)
	expect.Error(t, err, "unexpected end of expression")
	expect.True(t, errors.Is(err, ErrUnexpectedEOF))
}
