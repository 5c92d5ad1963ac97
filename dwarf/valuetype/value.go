// Package valuetype implements the typed numeric datum DWARF expressions
// compute over: a small tagged value with arithmetic, comparison, and
// conversion operations that fail instead of silently reinterpreting bits
// where DWARF forbids it.
package valuetype

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ValueType tags the width and signedness of a Value. DW_OP_convert and
// DW_OP_reinterpret name a base type DIE; callers resolve that DIE to one of
// these tags before resuming the evaluator.
type ValueType int

const (
	// TypeGeneric is DWARF's default numeric type: an unsigned integer the
	// width of the target's address size. The zero value so that an
	// unqualified Value{} reads as the common case.
	TypeGeneric ValueType = iota
	TypeU8
	TypeU16
	TypeU32
	TypeU64
	TypeI8
	TypeI16
	TypeI32
	TypeI64
	TypeF32
	TypeF64
)

func (t ValueType) String() string {
	switch t {
	case TypeGeneric:
		return "generic"
	case TypeU8:
		return "u8"
	case TypeU16:
		return "u16"
	case TypeU32:
		return "u32"
	case TypeU64:
		return "u64"
	case TypeI8:
		return "i8"
	case TypeI16:
		return "i16"
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeF32:
		return "f32"
	case TypeF64:
		return "f64"
	default:
		return fmt.Sprintf("valuetype(%d)", int(t))
	}
}

func (t ValueType) isFloat() bool {
	return t == TypeF32 || t == TypeF64
}

func (t ValueType) isSigned() bool {
	return t == TypeI8 || t == TypeI16 || t == TypeI32 || t == TypeI64
}

// byteSize returns the type's width in bytes. addrMask supplies the width of
// TypeGeneric, since the generic type's width is the target address size,
// not a fixed constant.
func (t ValueType) byteSize(addrMask uint64) int {
	switch t {
	case TypeGeneric:
		return GenericWidth(addrMask)
	case TypeU8, TypeI8:
		return 1
	case TypeU16, TypeI16:
		return 2
	case TypeU32, TypeI32, TypeF32:
		return 4
	case TypeU64, TypeI64, TypeF64:
		return 8
	default:
		return 8
	}
}

// GenericWidth derives the address width, in bytes, implied by addrMask
// (an all-ones mask of the target's address size, or all-ones of a uint64
// for an 8 byte address per the evaluator's addr_mask field).
func GenericWidth(addrMask uint64) int {
	width := 0
	for addrMask != 0 {
		width++
		addrMask >>= 8
	}
	if width == 0 {
		return 8
	}
	return width
}

// Value is a tagged numeric datum. Integers (including Generic) are stored
// as a raw bit pattern in bits; floats are stored via their IEEE-754 bit
// pattern so a single field suffices for every type.
type Value struct {
	Type ValueType
	bits uint64
}

func Generic(v uint64) Value {
	return Value{Type: TypeGeneric, bits: v}
}

func Unsigned(t ValueType, v uint64) Value {
	return Value{Type: t, bits: v}
}

func Signed(t ValueType, v int64) Value {
	return Value{Type: t, bits: uint64(v)}
}

func Float32(v float32) Value {
	return Value{Type: TypeF32, bits: uint64(math.Float32bits(v))}
}

func Float64(v float64) Value {
	return Value{Type: TypeF64, bits: math.Float64bits(v)}
}

// FromBytes decodes a typed literal's byte payload (DW_OP_const_type,
// DW_OP_GNU_const_type, or a register/frame value described by a base type)
// into a Value of the given type.
func FromBytes(t ValueType, data []byte, order binary.ByteOrder) (Value, error) {
	size := t.byteSize(^uint64(0))
	if len(data) < size {
		return Value{}, fmt.Errorf(
			"%w: need %d bytes for %s, have %d", ErrShortTypedLiteral, size, t, len(data))
	}

	switch t {
	case TypeF32:
		return Float32(math.Float32frombits(order.Uint32(data))), nil
	case TypeF64:
		return Float64(math.Float64frombits(order.Uint64(data))), nil
	}

	raw := uint64(0)
	switch size {
	case 1:
		raw = uint64(data[0])
	case 2:
		raw = uint64(order.Uint16(data))
	case 4:
		raw = uint64(order.Uint32(data))
	case 8:
		raw = order.Uint64(data)
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedWidth, t)
	}
	return Value{Type: t, bits: raw}, nil
}

// maskTo truncates the raw bit pattern to the given byte width.
func (v Value) maskTo(bytes int) uint64 {
	if bytes >= 8 {
		return v.bits
	}
	return v.bits & ((uint64(1) << uint(8*bytes)) - 1)
}

// unsigned returns the value's bit pattern truncated to its own type width.
func (v Value) unsigned(addrMask uint64) uint64 {
	return v.maskTo(v.Type.byteSize(addrMask))
}

// signed returns the value's bit pattern sign-extended from its own type
// width to 64 bits.
func (v Value) signed(addrMask uint64) int64 {
	bytes := v.Type.byteSize(addrMask)
	if bytes >= 8 {
		return int64(v.bits)
	}
	shift := uint(64 - 8*bytes)
	return int64(v.bits<<shift) >> shift
}

func (v Value) float64(addrMask uint64) (float64, error) {
	switch v.Type {
	case TypeF32:
		return float64(math.Float32frombits(uint32(v.bits))), nil
	case TypeF64:
		return math.Float64frombits(v.bits), nil
	default:
		if v.Type.isSigned() {
			return float64(v.signed(addrMask)), nil
		}
		return float64(v.unsigned(addrMask)), nil
	}
}

// ToAddress converts v to a u64 address, asserting it is an integral value
// (DWARF forbids using a float as an address) and truncating to addrMask.
func (v Value) ToAddress(addrMask uint64) (uint64, error) {
	if v.Type.isFloat() {
		return 0, fmt.Errorf("%w: cannot use %s value as an address", ErrFloatOperation, v.Type)
	}
	return v.unsigned(addrMask) & addrMask, nil
}

// resultType applies DWARF's generic-type promotion: an operand typed
// Generic takes on the other operand's type; otherwise both operands must
// agree.
func resultType(lhs, rhs ValueType) (ValueType, error) {
	switch {
	case lhs == TypeGeneric && rhs == TypeGeneric:
		return TypeGeneric, nil
	case lhs == TypeGeneric:
		return rhs, nil
	case rhs == TypeGeneric:
		return lhs, nil
	case lhs != rhs:
		return 0, fmt.Errorf("%w: %s vs %s", ErrTypeMismatch, lhs, rhs)
	default:
		return lhs, nil
	}
}

type binIntFn func(lhs, rhs uint64) uint64
type binSignedFn func(lhs, rhs int64) int64

func (v Value) binaryInt(rhs Value, addrMask uint64, unsignedOp binIntFn, signedOp binSignedFn) (Value, error) {
	t, err := resultType(v.Type, rhs.Type)
	if err != nil {
		return Value{}, err
	}
	if t.isFloat() {
		return Value{}, fmt.Errorf("%w: %s", ErrFloatOperation, t)
	}

	out := Value{Type: t}
	if t.isSigned() {
		out.bits = uint64(signedOp(v.signed(addrMask), rhs.signed(addrMask)))
	} else {
		out.bits = unsignedOp(v.unsigned(addrMask), rhs.unsigned(addrMask))
	}
	return maskResult(out, addrMask), nil
}

func maskResult(v Value, addrMask uint64) Value {
	size := v.Type.byteSize(addrMask)
	if v.Type.isSigned() {
		shift := uint(64 - 8*size)
		if size < 8 {
			v.bits = uint64(int64(v.bits<<shift) >> shift)
		}
	} else {
		v.bits = v.maskTo(size)
	}
	return v
}

func Add(lhs, rhs Value, addrMask uint64) (Value, error) {
	if lhs.Type.isFloat() || rhs.Type.isFloat() {
		return floatBinOp(lhs, rhs, addrMask, func(a, b float64) float64 { return a + b })
	}
	return lhs.binaryInt(rhs, addrMask,
		func(a, b uint64) uint64 { return a + b },
		func(a, b int64) int64 { return a + b })
}

func Sub(lhs, rhs Value, addrMask uint64) (Value, error) {
	if lhs.Type.isFloat() || rhs.Type.isFloat() {
		return floatBinOp(lhs, rhs, addrMask, func(a, b float64) float64 { return a - b })
	}
	return lhs.binaryInt(rhs, addrMask,
		func(a, b uint64) uint64 { return a - b },
		func(a, b int64) int64 { return a - b })
}

func Mul(lhs, rhs Value, addrMask uint64) (Value, error) {
	if lhs.Type.isFloat() || rhs.Type.isFloat() {
		return floatBinOp(lhs, rhs, addrMask, func(a, b float64) float64 { return a * b })
	}
	return lhs.binaryInt(rhs, addrMask,
		func(a, b uint64) uint64 { return a * b },
		func(a, b int64) int64 { return a * b })
}

func Div(lhs, rhs Value, addrMask uint64) (Value, error) {
	if lhs.Type.isFloat() || rhs.Type.isFloat() {
		return floatBinOp(lhs, rhs, addrMask, func(a, b float64) float64 { return a / b })
	}
	if rhs.unsigned(addrMask) == 0 && !rhs.Type.isSigned() {
		return Value{}, fmt.Errorf("%w: division by zero", ErrArithmetic)
	}
	if rhs.Type.isSigned() && rhs.signed(addrMask) == 0 {
		return Value{}, fmt.Errorf("%w: division by zero", ErrArithmetic)
	}
	return lhs.binaryInt(rhs, addrMask,
		func(a, b uint64) uint64 { return a / b },
		func(a, b int64) int64 { return a / b })
}

func Mod(lhs, rhs Value, addrMask uint64) (Value, error) {
	if lhs.Type.isFloat() || rhs.Type.isFloat() {
		return Value{}, fmt.Errorf("%w: mod on float type", ErrFloatOperation)
	}
	if rhs.unsigned(addrMask) == 0 {
		return Value{}, fmt.Errorf("%w: modulo by zero", ErrArithmetic)
	}
	return lhs.binaryInt(rhs, addrMask,
		func(a, b uint64) uint64 { return a % b },
		func(a, b int64) int64 { return a % b })
}

func And(lhs, rhs Value, addrMask uint64) (Value, error) {
	return intOnlyBinOp(lhs, rhs, addrMask, func(a, b uint64) uint64 { return a & b })
}

func Or(lhs, rhs Value, addrMask uint64) (Value, error) {
	return intOnlyBinOp(lhs, rhs, addrMask, func(a, b uint64) uint64 { return a | b })
}

func Xor(lhs, rhs Value, addrMask uint64) (Value, error) {
	return intOnlyBinOp(lhs, rhs, addrMask, func(a, b uint64) uint64 { return a ^ b })
}

func Shl(lhs, rhs Value, addrMask uint64) (Value, error) {
	if lhs.Type.isFloat() {
		return Value{}, fmt.Errorf("%w: shl on float type", ErrFloatOperation)
	}
	shift := rhs.unsigned(addrMask)
	out := Value{Type: lhs.Type}
	if shift >= 64 {
		out.bits = 0
	} else {
		out.bits = lhs.unsigned(addrMask) << shift
	}
	return maskResult(out, addrMask), nil
}

func Shr(lhs, rhs Value, addrMask uint64) (Value, error) {
	if lhs.Type.isFloat() {
		return Value{}, fmt.Errorf("%w: shr on float type", ErrFloatOperation)
	}
	shift := rhs.unsigned(addrMask)
	out := Value{Type: lhs.Type}
	if shift >= 64 {
		out.bits = 0
	} else {
		out.bits = lhs.unsigned(addrMask) >> shift
	}
	return maskResult(out, addrMask), nil
}

func Shra(lhs, rhs Value, addrMask uint64) (Value, error) {
	if lhs.Type.isFloat() {
		return Value{}, fmt.Errorf("%w: shra on float type", ErrFloatOperation)
	}
	shift := rhs.unsigned(addrMask)
	out := Value{Type: lhs.Type}
	signedVal := lhs.signed(addrMask)
	if shift >= 64 {
		if signedVal < 0 {
			out.bits = ^uint64(0)
		} else {
			out.bits = 0
		}
	} else {
		out.bits = uint64(signedVal >> shift)
	}
	return maskResult(out, addrMask), nil
}

func intOnlyBinOp(lhs, rhs Value, addrMask uint64, op binIntFn) (Value, error) {
	t, err := resultType(lhs.Type, rhs.Type)
	if err != nil {
		return Value{}, err
	}
	if t.isFloat() {
		return Value{}, fmt.Errorf("%w: %s", ErrFloatOperation, t)
	}
	out := Value{Type: t, bits: op(lhs.unsigned(addrMask), rhs.unsigned(addrMask))}
	return maskResult(out, addrMask), nil
}

func floatBinOp(lhs, rhs Value, addrMask uint64, op func(a, b float64) float64) (Value, error) {
	t, err := resultType(lhs.Type, rhs.Type)
	if err != nil {
		return Value{}, err
	}
	a, err := lhs.float64(addrMask)
	if err != nil {
		return Value{}, err
	}
	b, err := rhs.float64(addrMask)
	if err != nil {
		return Value{}, err
	}
	result := op(a, b)
	if t == TypeF32 {
		return Float32(float32(result)), nil
	}
	return Float64(result), nil
}

func compare(lhs, rhs Value, addrMask uint64, intCmp func(a, b int64) bool, uintCmp func(a, b uint64) bool, floatCmp func(a, b float64) bool) (Value, error) {
	_, err := resultType(lhs.Type, rhs.Type)
	if err != nil {
		return Value{}, err
	}

	var result bool
	if lhs.Type.isFloat() || rhs.Type.isFloat() {
		a, err := lhs.float64(addrMask)
		if err != nil {
			return Value{}, err
		}
		b, err := rhs.float64(addrMask)
		if err != nil {
			return Value{}, err
		}
		result = floatCmp(a, b)
	} else if lhs.Type.isSigned() || rhs.Type.isSigned() {
		result = intCmp(lhs.signed(addrMask), rhs.signed(addrMask))
	} else {
		result = uintCmp(lhs.unsigned(addrMask), rhs.unsigned(addrMask))
	}

	if result {
		return Generic(1), nil
	}
	return Generic(0), nil
}

func Eq(lhs, rhs Value, addrMask uint64) (Value, error) {
	return compare(lhs, rhs, addrMask,
		func(a, b int64) bool { return a == b },
		func(a, b uint64) bool { return a == b },
		func(a, b float64) bool { return a == b })
}

func Ne(lhs, rhs Value, addrMask uint64) (Value, error) {
	return compare(lhs, rhs, addrMask,
		func(a, b int64) bool { return a != b },
		func(a, b uint64) bool { return a != b },
		func(a, b float64) bool { return a != b })
}

func Ge(lhs, rhs Value, addrMask uint64) (Value, error) {
	return compare(lhs, rhs, addrMask,
		func(a, b int64) bool { return a >= b },
		func(a, b uint64) bool { return a >= b },
		func(a, b float64) bool { return a >= b })
}

func Gt(lhs, rhs Value, addrMask uint64) (Value, error) {
	return compare(lhs, rhs, addrMask,
		func(a, b int64) bool { return a > b },
		func(a, b uint64) bool { return a > b },
		func(a, b float64) bool { return a > b })
}

func Le(lhs, rhs Value, addrMask uint64) (Value, error) {
	return compare(lhs, rhs, addrMask,
		func(a, b int64) bool { return a <= b },
		func(a, b uint64) bool { return a <= b },
		func(a, b float64) bool { return a <= b })
}

func Lt(lhs, rhs Value, addrMask uint64) (Value, error) {
	return compare(lhs, rhs, addrMask,
		func(a, b int64) bool { return a < b },
		func(a, b uint64) bool { return a < b },
		func(a, b float64) bool { return a < b })
}

func Neg(v Value, addrMask uint64) (Value, error) {
	if v.Type.isFloat() {
		f, _ := v.float64(addrMask)
		if v.Type == TypeF32 {
			return Float32(float32(-f)), nil
		}
		return Float64(-f), nil
	}
	out := Value{Type: v.Type, bits: uint64(-v.signed(addrMask))}
	return maskResult(out, addrMask), nil
}

func Abs(v Value, addrMask uint64) (Value, error) {
	if v.Type.isFloat() {
		f, _ := v.float64(addrMask)
		if f < 0 {
			f = -f
		}
		if v.Type == TypeF32 {
			return Float32(float32(f)), nil
		}
		return Float64(f), nil
	}
	n := v.signed(addrMask)
	if n < 0 {
		n = -n
	}
	out := Value{Type: v.Type, bits: uint64(n)}
	return maskResult(out, addrMask), nil
}

func Not(v Value, addrMask uint64) (Value, error) {
	if v.Type.isFloat() {
		return Value{}, fmt.Errorf("%w: not on float type", ErrFloatOperation)
	}
	out := Value{Type: v.Type, bits: ^v.unsigned(addrMask)}
	return maskResult(out, addrMask), nil
}

// PlusConstant constructs a Value of lhs's type from value, then adds it to
// lhs, per DW_OP_plus_uconst's semantics.
func PlusConstant(lhs Value, value uint64, addrMask uint64) (Value, error) {
	return Add(lhs, Value{Type: lhs.Type, bits: value}, addrMask)
}

// Convert performs a DW_OP_convert: a numeric conversion (narrowing,
// widening, sign change, or int<->float) to the target type.
func Convert(v Value, target ValueType, addrMask uint64) (Value, error) {
	if target.isFloat() {
		f, err := v.float64(addrMask)
		if err != nil {
			return Value{}, err
		}
		if target == TypeF32 {
			return Float32(float32(f)), nil
		}
		return Float64(f), nil
	}

	if v.Type.isFloat() {
		f, _ := v.float64(addrMask)
		out := Value{Type: target, bits: uint64(int64(f))}
		return maskResult(out, addrMask), nil
	}

	var raw uint64
	if v.Type.isSigned() {
		raw = uint64(v.signed(addrMask))
	} else {
		raw = v.unsigned(addrMask)
	}
	out := Value{Type: target, bits: raw}
	return maskResult(out, addrMask), nil
}

// Reinterpret performs a DW_OP_reinterpret: a bit-for-bit reinterpretation
// of v's storage as the target type. The two types must be the same width.
func Reinterpret(v Value, target ValueType, addrMask uint64) (Value, error) {
	srcSize := v.Type.byteSize(addrMask)
	dstSize := target.byteSize(addrMask)
	if srcSize != dstSize {
		return Value{}, fmt.Errorf(
			"%w: cannot reinterpret %s (%d bytes) as %s (%d bytes)",
			ErrTypeMismatch, v.Type, srcSize, target, dstSize)
	}

	return Value{Type: target, bits: v.maskTo(srcSize)}, nil
}

// Uint64 returns the value's bit pattern truncated to its own type's width,
// for callers (tests, the dwarf package's Location conversion) that need the raw
// unsigned representation directly.
func (v Value) Uint64(addrMask uint64) uint64 {
	return v.unsigned(addrMask)
}

// Int64 returns the value's bit pattern sign-extended to 64 bits.
func (v Value) Int64(addrMask uint64) int64 {
	return v.signed(addrMask)
}
