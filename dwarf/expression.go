package dwarf

import (
	"encoding/binary"
	"fmt"

	"github.com/pattyshack/dwarfvm/dwarf/valuetype"
)

type LocationKind string

const (
	// Address and contents of the variable are unknown (e.g., due to compiler
	// optimization)
	UnavailableLocation = LocationKind("unavailable")

	// Value is interpreted as virtual address
	AddressLocation = LocationKind("address")

	// Value is interpreted as dwarf RegisterId
	RegisterLocation = LocationKind("register")

	// No real storage. Value is interpreted as implicit literal
	ImplicitLiteralLocation = LocationKind("implicit literal")

	// No real storage. Data slice
	ImplicitDataLocation = LocationKind("implicit data")

	// No real storage. Value is the DIE offset operand naming the pointed-to
	// object, PointerByteOffset the byte offset into it; Data is not set.
	// Resolving the referenced object's own location is left to the caller;
	// this debugger has no support for following it across scopes.
	ImplicitPointerLocation = LocationKind("implicit pointer")
)

type LocationChunk struct {
	Kind LocationKind

	Value uint64
	Data  []byte

	// NOTE: when BitSize is zero, the entire value is used.
	BitSize   uint64
	BitOffset uint64

	// ImplicitPointerLocation only: the byte offset into the referenced
	// object named by DW_OP_implicit_pointer/DW_OP_GNU_implicit_pointer.
	PointerByteOffset int64
}

// Empty slice indicates empty result (address/contents of the variable are
// unknown).  Single element slice indicates simple location.  Multi-elements
// slice indicates composite location.
type Location []LocationChunk

type ExpressionContext interface {
	ByteOrder() binary.ByteOrder

	LoadBias() uint64 // virtual address

	CurrentFunctionEntry() *DebugInfoEntry

	ProgramCounter() uint64 // virtual address

	RegisterValue(id RegisterId) (uint64, error)

	ReadMemory(virtualAddress uint64, out []byte) (int, error)

	CanonicalFrameAddress() (uint64, error) // virtual address

	// AddressSize and Format parameterize the resumable Evaluator (spec'd
	// operand widths and offset widths). The prior, non-resumable evaluator
	// hardcoded an 8-byte address and 32-bit section offsets throughout this
	// package; concrete ExpressionContext implementations may keep doing
	// exactly that (see debugger/call_stack.go's CallFrame, which already
	// hardcodes ByteOrder() the same way).
	AddressSize() int
	Format() DwarfFormat
}

// EvaluateExpression runs a DWARF location/value expression to completion
// against context, answering the resumable Evaluator's suspensions
// synchronously, and converts its resulting Pieces into the Location shape
// every caller in this repo (debug_info_entry.go, location.go,
// debugger/call_stack.go) already expects.
func EvaluateExpression(
	context ExpressionContext,
	inFrameInfo bool,
	instructions []byte,
	initializeStackWithCFA bool,
) (
	Location,
	error,
) {
	evaluator := NewEvaluator(
		NewCursor(context.ByteOrder(), instructions),
		context.AddressSize(),
		context.Format())

	if initializeStackWithCFA {
		cfa, err := context.CanonicalFrameAddress()
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate expression: %w", err)
		}
		evaluator.SetInitialValue(cfa)
	}

	if entry := context.CurrentFunctionEntry(); entry != nil {
		if low, ok := entry.Address(DW_AT_low_pc); ok {
			evaluator.SetObjectAddress(uint64(low))
		}
	}

	result, err := evaluator.Evaluate()
	for err == nil && result.Kind != ResultComplete {
		result, err = resumeEvaluation(context, evaluator, result)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate expression: %w", err)
	}

	pieces, err := evaluator.Result()
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate expression: %w", err)
	}

	return piecesToLocation(context, inFrameInfo, pieces)
}

// resumeEvaluation answers exactly one Evaluator suspension from context,
// returning the next EvaluationResult, dispatched off EvaluationResult.Kind.
func resumeEvaluation(
	context ExpressionContext,
	evaluator *Evaluator,
	result EvaluationResult,
) (
	EvaluationResult,
	error,
) {
	switch result.Kind {
	case ResultRequiresMemory:
		return resumeWithMemory(context, evaluator, result)

	case ResultRequiresRegister:
		raw, err := context.RegisterValue(result.Register)
		if err != nil {
			return EvaluationResult{}, err
		}
		vt, err := resolveBaseType(context, result.BaseType)
		if err != nil {
			return EvaluationResult{}, err
		}
		return evaluator.ResumeWithRegister(valuetype.Unsigned(vt, raw))

	case ResultRequiresFrameBase:
		frameBase, err := currentFrameBase(context)
		if err != nil {
			return EvaluationResult{}, err
		}
		return evaluator.ResumeWithFrameBase(frameBase)

	case ResultRequiresTls:
		return EvaluationResult{}, fmt.Errorf(
			"thread-local storage expressions are not supported")

	case ResultRequiresCallFrameCfa:
		cfa, err := context.CanonicalFrameAddress()
		if err != nil {
			return EvaluationResult{}, err
		}
		return evaluator.ResumeWithCallFrameCfa(cfa)

	case ResultRequiresAtLocation:
		bytes, err := resolveCallTarget(context, result.Callee)
		if err != nil {
			return EvaluationResult{}, err
		}
		return evaluator.ResumeWithAtLocation(bytes)

	case ResultRequiresEntryValue:
		return EvaluationResult{}, fmt.Errorf(
			"DW_OP_entry_value expressions are not supported")

	case ResultRequiresParameterRef:
		return EvaluationResult{}, fmt.Errorf(
			"GNU_parameter_ref expressions are not supported")

	case ResultRequiresRelocatedAddress:
		return evaluator.ResumeWithRelocatedAddress(result.Address + context.LoadBias())

	case ResultRequiresBaseType:
		vt, err := resolveBaseType(context, result.BaseType)
		if err != nil {
			return EvaluationResult{}, err
		}
		return evaluator.ResumeWithBaseType(vt)

	default:
		return EvaluationResult{}, fmt.Errorf(
			"unsupported evaluation request (%s)", result.Kind)
	}
}

func resumeWithMemory(
	context ExpressionContext,
	evaluator *Evaluator,
	result EvaluationResult,
) (
	EvaluationResult,
	error,
) {
	if result.Space != nil {
		return EvaluationResult{}, fmt.Errorf(
			"address spaces are not supported (space %d)", *result.Space)
	}

	vt, err := resolveBaseType(context, result.BaseType)
	if err != nil {
		return EvaluationResult{}, err
	}

	buf := make([]byte, result.Size)
	n, err := context.ReadMemory(result.Address, buf)
	if err != nil {
		return EvaluationResult{}, err
	}
	if n != len(buf) {
		return EvaluationResult{}, fmt.Errorf(
			"short memory read at %#x: got %d of %d bytes", result.Address, n, len(buf))
	}

	// FromBytes sizes TypeGeneric at a fixed 8 bytes; a DW_OP_deref_size (or
	// deref on a smaller target address) may have read fewer bytes than that,
	// so zero-extend the read up to 8 bytes before constructing the Value.
	if vt == valuetype.TypeGeneric && len(buf) < 8 {
		buf = zeroExtend(buf, 8, context.ByteOrder())
	}

	value, err := valuetype.FromBytes(vt, buf, context.ByteOrder())
	if err != nil {
		return EvaluationResult{}, err
	}
	return evaluator.ResumeWithMemory(value)
}

// zeroExtend pads data out to size bytes with zeros, placing the original
// bytes at the low-order end under order so the represented numeric value is
// unchanged.
func zeroExtend(data []byte, size int, order binary.ByteOrder) []byte {
	out := make([]byte, size)
	if order == binary.BigEndian {
		copy(out[size-len(data):], data)
	} else {
		copy(out, data)
	}
	return out
}

// currentFrameBase evaluates DW_AT_frame_base as an inFrameInfo
// sub-expression that must resolve to a single AddressLocation chunk.
func currentFrameBase(context ExpressionContext) (uint64, error) {
	entry := context.CurrentFunctionEntry()
	if entry == nil {
		return 0, fmt.Errorf("current function debug info entry unavailable")
	}

	location, err := entry.EvaluateLocation(
		DW_AT_frame_base,
		context,
		true,  // in frame info
		false) // initialize stack with cfa
	if err != nil {
		return 0, err
	}

	if len(location) != 1 || location[0].Kind != AddressLocation {
		return 0, fmt.Errorf("unsupported frame base location")
	}

	return location[0].Value, nil
}

// resolveBaseType maps a DW_OP_convert/reinterpret/const_type/regval_type/
// deref_type operand (a base type DIE's unit-relative offset, or 0 for the
// generic type) to the ValueType the core Evaluator deals in. Grounded on
// debugger/typed_data.go's parseBaseType, the existing DW_AT_encoding /
// DW_AT_byte_size -> kind mapping this codebase already performs for the
// interactive data formatter.
func resolveBaseType(context ExpressionContext, offset uint64) (valuetype.ValueType, error) {
	if offset == 0 {
		return valuetype.TypeGeneric, nil
	}

	entry := context.CurrentFunctionEntry()
	if entry == nil {
		return 0, fmt.Errorf("base type DIE unavailable without a current function")
	}

	die, err := entry.CompileUnit.File.EntryAt(entry.CompileUnit.Start + SectionOffset(offset))
	if err != nil {
		return 0, fmt.Errorf("failed to resolve base type DIE (%d): %w", offset, err)
	}

	encoding, ok := die.Uint(DW_AT_encoding)
	if !ok {
		return 0, fmt.Errorf("base type DIE (%d) has no encoding", offset)
	}

	byteSize, ok := die.Uint(DW_AT_byte_size)
	if !ok {
		return 0, fmt.Errorf("base type DIE (%d) has no byte size", offset)
	}

	switch encoding {
	case DW_ATE_boolean, DW_ATE_unsigned, DW_ATE_unsigned_char, DW_ATE_address:
		switch byteSize {
		case 1:
			return valuetype.TypeU8, nil
		case 2:
			return valuetype.TypeU16, nil
		case 4:
			return valuetype.TypeU32, nil
		case 8:
			return valuetype.TypeU64, nil
		}
	case DW_ATE_signed, DW_ATE_signed_char:
		switch byteSize {
		case 1:
			return valuetype.TypeI8, nil
		case 2:
			return valuetype.TypeI16, nil
		case 4:
			return valuetype.TypeI32, nil
		case 8:
			return valuetype.TypeI64, nil
		}
	case DW_ATE_float:
		switch byteSize {
		case 4:
			return valuetype.TypeF32, nil
		case 8:
			return valuetype.TypeF64, nil
		}
	}

	return 0, fmt.Errorf(
		"unsupported base type DIE (%d): encoding=%d byte_size=%d",
		offset, encoding, byteSize)
}

// resolveCallTarget resolves a DW_OP_call2/call4/call_ref operand to its
// target DIE's DW_AT_location expression bytes. unit-relative offsets are
// interpreted against the current function's own compile unit, mirroring
// DebugInfoEntryReference's section-relative vs unit-relative split
// (dieref.go, cursor.go's value()).
func resolveCallTarget(context ExpressionContext, ref DieReference) ([]byte, error) {
	entry := context.CurrentFunctionEntry()
	if entry == nil {
		return nil, fmt.Errorf("call target unavailable without a current function")
	}

	sectionOffset := ref.Offset
	if ref.Kind == UnitRef {
		sectionOffset = entry.CompileUnit.Start + ref.Offset
	}

	callee, err := entry.CompileUnit.File.EntryAt(sectionOffset)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve call target (%s): %w", ref, err)
	}

	idx := callee.SpecIndex(DW_AT_location)
	if idx == -1 {
		return nil, nil
	}

	if callee.AttributeSpecs[idx].Format != DW_FORM_exprloc {
		return nil, fmt.Errorf("call target (%s) has a non-exprloc location", ref)
	}

	return callee.Values[idx].([]byte), nil
}

// piecesToLocation converts the Evaluator's completed result into the
// Location/LocationChunk shape the rest of this package expects. The
// inFrameInfo/bare register special case: a frame base expression that
// terminates in a bare DW_OP_regN names the register that *holds* the frame
// base, not a location living in that register.
func piecesToLocation(
	context ExpressionContext,
	inFrameInfo bool,
	pieces []Piece,
) (
	Location,
	error,
) {
	location := make(Location, 0, len(pieces))
	for _, piece := range pieces {
		chunk, err := pieceToChunk(context, inFrameInfo, piece.Location)
		if err != nil {
			return nil, err
		}

		if piece.SizeInBits != nil {
			chunk.BitSize = *piece.SizeInBits
		}
		if piece.BitOffset != nil {
			chunk.BitOffset = *piece.BitOffset
		}

		location = append(location, chunk)
	}

	return location, nil
}

func pieceToChunk(
	context ExpressionContext,
	inFrameInfo bool,
	loc PieceLocation,
) (
	LocationChunk,
	error,
) {
	switch loc.Kind {
	case PieceEmpty:
		return LocationChunk{Kind: UnavailableLocation}, nil

	case PieceAddress:
		return LocationChunk{Kind: AddressLocation, Value: loc.Address}, nil

	case PieceRegister:
		if inFrameInfo {
			value, err := context.RegisterValue(loc.Register)
			if err != nil {
				return LocationChunk{}, err
			}
			return LocationChunk{Kind: AddressLocation, Value: value}, nil
		}
		return LocationChunk{Kind: RegisterLocation, Value: uint64(loc.Register)}, nil

	case PieceValue:
		return LocationChunk{
			Kind:  ImplicitLiteralLocation,
			Value: loc.Value.Uint64(^uint64(0)),
		}, nil

	case PieceBytes:
		return LocationChunk{Kind: ImplicitDataLocation, Data: loc.Bytes}, nil

	case PieceImplicitPointer:
		return LocationChunk{
			Kind:              ImplicitPointerLocation,
			Value:             loc.DieOffset,
			PointerByteOffset: loc.ByteOffset,
		}, nil

	default:
		return LocationChunk{}, fmt.Errorf("unsupported piece location kind (%s)", loc.Kind)
	}
}
