package dwarf

import (
	"fmt"

	"github.com/pattyshack/dwarfvm/dwarf/valuetype"
)

// EvaluationResultKind tags what an Evaluator call returned: either the
// evaluation finished, or it needs one specific piece of external data
// before it can continue. Each non-Complete kind has exactly one matching
// Evaluator.ResumeWithX method.
type EvaluationResultKind int

const (
	ResultComplete EvaluationResultKind = iota
	ResultRequiresMemory
	ResultRequiresRegister
	ResultRequiresFrameBase
	ResultRequiresTls
	ResultRequiresCallFrameCfa
	ResultRequiresAtLocation
	ResultRequiresEntryValue
	ResultRequiresParameterRef
	ResultRequiresRelocatedAddress
	ResultRequiresBaseType
)

func (k EvaluationResultKind) String() string {
	switch k {
	case ResultComplete:
		return "Complete"
	case ResultRequiresMemory:
		return "RequiresMemory"
	case ResultRequiresRegister:
		return "RequiresRegister"
	case ResultRequiresFrameBase:
		return "RequiresFrameBase"
	case ResultRequiresTls:
		return "RequiresTls"
	case ResultRequiresCallFrameCfa:
		return "RequiresCallFrameCfa"
	case ResultRequiresAtLocation:
		return "RequiresAtLocation"
	case ResultRequiresEntryValue:
		return "RequiresEntryValue"
	case ResultRequiresParameterRef:
		return "RequiresParameterRef"
	case ResultRequiresRelocatedAddress:
		return "RequiresRelocatedAddress"
	case ResultRequiresBaseType:
		return "RequiresBaseType"
	default:
		return fmt.Sprintf("EvaluationResultKind(%d)", int(k))
	}
}

// EvaluationResult is returned by Evaluate and every ResumeWithX call. Only
// the fields relevant to Kind are populated, the same tagged-union-via-Kind
// convention Instruction uses.
type EvaluationResult struct {
	Kind EvaluationResultKind

	// RequiresMemory
	Address uint64
	Size    int
	Space   *uint64

	// RequiresMemory, RequiresRegister, RequiresBaseType: a base type DIE's
	// unit offset (0 is the generic-type sentinel).
	BaseType uint64

	// RequiresRegister
	Register RegisterId

	// RequiresTls
	Slot uint64

	// RequiresAtLocation
	Callee DieReference

	// RequiresEntryValue
	EntryExpression []byte

	// RequiresParameterRef
	ParameterOffset uint64
}

// PieceLocationKind tags where a Piece's data lives.
type PieceLocationKind int

const (
	PieceEmpty PieceLocationKind = iota
	PieceAddress
	PieceRegister
	PieceValue
	PieceBytes
	PieceImplicitPointer
)

func (k PieceLocationKind) String() string {
	switch k {
	case PieceEmpty:
		return "empty"
	case PieceAddress:
		return "address"
	case PieceRegister:
		return "register"
	case PieceValue:
		return "value"
	case PieceBytes:
		return "bytes"
	case PieceImplicitPointer:
		return "implicit pointer"
	default:
		return fmt.Sprintf("PieceLocationKind(%d)", int(k))
	}
}

// PieceLocation describes where one Piece of an evaluation's result lives.
// Distinct from the existing Location/LocationChunk types (location.go,
// expression.go), which describe the legacy non-resumable evaluator's
// output shape; EvaluateExpression converts between the two so existing
// callers keep seeing Location.
type PieceLocation struct {
	Kind PieceLocationKind

	Address  uint64
	Register RegisterId
	Value    valuetype.Value
	Bytes    []byte

	// ImplicitPointer
	DieOffset  uint64
	ByteOffset int64
}

// Piece is one fragment of an evaluation's result (spec'd composite
// location). A nil SizeInBits/BitOffset means the piece spans the whole
// value; a result with exactly one such piece denotes the whole object.
type Piece struct {
	SizeInBits *uint64
	BitOffset  *uint64
	Location   PieceLocation
}

type evaluationLifecycle int

const (
	lifecycleStart evaluationLifecycle = iota
	lifecycleReady
	lifecycleWaiting
	lifecycleComplete
	lifecycleError
)

// waitingKind records which ResumeWithX call is valid while the evaluator
// is suspended, and stashes the handful of bytes each suspension needs to
// interpret the eventual resume value.
type waitingKind int

const (
	waitNone waitingKind = iota
	waitMemory
	waitRegister
	waitFrameBase
	waitTls
	waitCfa
	waitAtLocation
	waitEntryValue
	waitParameterRef
	waitRelocatedAddress
	waitTypedLiteral
	waitConvert
	waitReinterpret
)

type waitingState struct {
	kind    waitingKind
	offset  int64  // Register, FrameBase
	literal []byte // TypedLiteral
}

// callFrame saves a suspended sub-expression's cursor pair across a
// DW_OP_call*.
type callFrame struct {
	pc       *Cursor
	bytecode *Cursor
}

type opOutcomeKind int

const (
	opPiece opOutcomeKind = iota
	opIncomplete
	opComplete
	opWaiting
)

type opOutcome struct {
	kind     opOutcomeKind
	location PieceLocation    // opComplete
	waiting  waitingState     // opWaiting
	request  EvaluationResult // opWaiting
}

// Evaluator is a resumable stack machine over a DWARF expression's
// bytecode. It never resolves memory, registers, frame base, TLS, CFA,
// relocations, sub-expression calls, or base types itself: every such need
// suspends the machine with a specific EvaluationResult, and the caller
// resumes it with exactly one matching ResumeWithX call. The machine is
// reified as an explicit state object rather than a native coroutine so the
// request/response boundary stays type-safe and cancellation is just
// dropping the object.
type Evaluator struct {
	// bytecode is the current active sub-expression's base cursor (position
	// 0); pc is the program counter within it. Both change together on
	// DW_OP_call*/ResumeWithAtLocation.
	bytecode *Cursor
	pc       *Cursor

	addressSize int
	format      DwarfFormat
	addrMask    uint64

	initialValue    *uint64
	initialValueSet bool
	objectAddress   *uint64
	maxIterations   *uint32
	iteration       uint32

	lifecycle evaluationLifecycle
	err       error
	waiting   waitingState

	stack     []valuetype.Value
	callStack []callFrame

	result []Piece
}

// NewEvaluator constructs an Evaluator over bytecode, positioned at its
// start, in the Start lifecycle state. addressSize (1, 2, 4, or 8) and
// format (Dwarf32 or Dwarf64) parameterize operand decoding for the
// lifetime of the evaluation.
func NewEvaluator(bytecode *Cursor, addressSize int, format DwarfFormat) *Evaluator {
	return &Evaluator{
		bytecode:    bytecode,
		pc:          bytecode.Clone(),
		addressSize: addressSize,
		format:      format,
		addrMask:    addrMaskFor(addressSize),
	}
}

// addrMaskFor returns an all-ones mask of the given address width: all 64
// bits set for an 8-byte address, else (1 << 8*addressSize) - 1.
func addrMaskFor(addressSize int) uint64 {
	if addressSize >= 8 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(8*addressSize)) - 1
}

// SetInitialValue seeds the value stack with one Generic value before
// evaluation begins. Panics (API contract violation) if called more than
// once or after evaluation has begun.
func (e *Evaluator) SetInitialValue(value uint64) {
	if e.lifecycle != lifecycleStart {
		panic("dwarf: SetInitialValue called after evaluation has begun")
	}
	if e.initialValueSet {
		panic("dwarf: SetInitialValue called twice")
	}
	e.initialValueSet = true
	e.initialValue = &value
}

// SetObjectAddress configures the address DW_OP_push_object_address
// pushes. Panics if called after evaluation has begun.
func (e *Evaluator) SetObjectAddress(address uint64) {
	if e.lifecycle != lifecycleStart {
		panic("dwarf: SetObjectAddress called after evaluation has begun")
	}
	e.objectAddress = &address
}

// SetMaxIterations bounds the number of decoded operations, guarding
// against adversarial bytecode (e.g. a skip-to-self loop). Panics if
// called after evaluation has begun.
func (e *Evaluator) SetMaxIterations(value uint32) {
	if e.lifecycle != lifecycleStart {
		panic("dwarf: SetMaxIterations called after evaluation has begun")
	}
	e.maxIterations = &value
}

// Evaluate starts or continues evaluation. On a fresh Evaluator it applies
// the configured initial value, then runs until completion or the next
// suspension. Calling it again once the evaluator is Complete or Error
// simply returns that terminal outcome again; calling it while a
// ResumeWithX call is pending is a contract violation.
func (e *Evaluator) Evaluate() (EvaluationResult, error) {
	switch e.lifecycle {
	case lifecycleStart:
		if e.initialValue != nil {
			e.push(valuetype.Generic(*e.initialValue))
		}
		e.lifecycle = lifecycleReady
	case lifecycleReady:
		// already running; re-entering Evaluate is harmless
	case lifecycleError:
		return EvaluationResult{}, e.err
	case lifecycleComplete:
		return EvaluationResult{Kind: ResultComplete}, nil
	case lifecycleWaiting:
		panic("dwarf: Evaluate called while a ResumeWithX call is pending")
	}
	return e.run()
}

// Result returns the accumulated pieces once evaluation is Complete.
// Panics if called before completion.
func (e *Evaluator) Result() ([]Piece, error) {
	if e.lifecycle != lifecycleComplete {
		panic("dwarf: Result called before evaluation completed")
	}
	return e.result, nil
}

func (e *Evaluator) beginResume(kind waitingKind, method string) error {
	if e.lifecycle == lifecycleError {
		return e.err
	}
	if e.lifecycle != lifecycleWaiting || e.waiting.kind != kind {
		panic(fmt.Sprintf(
			"dwarf: %s called without a preceding matching EvaluationResult", method))
	}
	return nil
}

func (e *Evaluator) ResumeWithMemory(value valuetype.Value) (EvaluationResult, error) {
	if err := e.beginResume(waitMemory, "ResumeWithMemory"); err != nil {
		return EvaluationResult{}, err
	}
	e.push(value)
	return e.run()
}

func (e *Evaluator) ResumeWithRegister(value valuetype.Value) (EvaluationResult, error) {
	if err := e.beginResume(waitRegister, "ResumeWithRegister"); err != nil {
		return EvaluationResult{}, err
	}
	offset := valuetype.Unsigned(value.Type, uint64(e.waiting.offset))
	result, err := valuetype.Add(value, offset, e.addrMask)
	if err != nil {
		return e.fail(err)
	}
	e.push(result)
	return e.run()
}

func (e *Evaluator) ResumeWithFrameBase(frameBase uint64) (EvaluationResult, error) {
	if err := e.beginResume(waitFrameBase, "ResumeWithFrameBase"); err != nil {
		return EvaluationResult{}, err
	}
	e.push(valuetype.Generic(frameBase + uint64(e.waiting.offset)))
	return e.run()
}

func (e *Evaluator) ResumeWithTls(value uint64) (EvaluationResult, error) {
	if err := e.beginResume(waitTls, "ResumeWithTls"); err != nil {
		return EvaluationResult{}, err
	}
	e.push(valuetype.Generic(value))
	return e.run()
}

func (e *Evaluator) ResumeWithCallFrameCfa(cfa uint64) (EvaluationResult, error) {
	if err := e.beginResume(waitCfa, "ResumeWithCallFrameCfa"); err != nil {
		return EvaluationResult{}, err
	}
	e.push(valuetype.Generic(cfa))
	return e.run()
}

// ResumeWithAtLocation resumes a DW_OP_call* with the callee's expression
// bytes. An empty slice means "no location" and is a no-op, per spec.
func (e *Evaluator) ResumeWithAtLocation(bytes []byte) (EvaluationResult, error) {
	if err := e.beginResume(waitAtLocation, "ResumeWithAtLocation"); err != nil {
		return EvaluationResult{}, err
	}
	if len(bytes) > 0 {
		base := NewCursor(e.bytecode.ByteOrder, bytes)
		e.callStack = append(e.callStack, callFrame{pc: e.pc, bytecode: e.bytecode})
		e.bytecode = base
		e.pc = base.Clone()
	}
	return e.run()
}

func (e *Evaluator) ResumeWithEntryValue(value valuetype.Value) (EvaluationResult, error) {
	if err := e.beginResume(waitEntryValue, "ResumeWithEntryValue"); err != nil {
		return EvaluationResult{}, err
	}
	e.push(value)
	return e.run()
}

func (e *Evaluator) ResumeWithParameterRef(value uint64) (EvaluationResult, error) {
	if err := e.beginResume(waitParameterRef, "ResumeWithParameterRef"); err != nil {
		return EvaluationResult{}, err
	}
	e.push(valuetype.Generic(value))
	return e.run()
}

func (e *Evaluator) ResumeWithRelocatedAddress(address uint64) (EvaluationResult, error) {
	if err := e.beginResume(waitRelocatedAddress, "ResumeWithRelocatedAddress"); err != nil {
		return EvaluationResult{}, err
	}
	e.push(valuetype.Generic(address))
	return e.run()
}

// ResumeWithBaseType resumes a DW_OP_const_type, DW_OP_convert, or
// DW_OP_reinterpret with the ValueType its base type DIE resolved to.
func (e *Evaluator) ResumeWithBaseType(vt valuetype.ValueType) (EvaluationResult, error) {
	if e.lifecycle == lifecycleError {
		return EvaluationResult{}, e.err
	}
	if e.lifecycle != lifecycleWaiting {
		panic("dwarf: ResumeWithBaseType called without a preceding RequiresBaseType result")
	}

	var value valuetype.Value
	var err error
	switch e.waiting.kind {
	case waitTypedLiteral:
		value, err = valuetype.FromBytes(vt, e.waiting.literal, e.bytecode.ByteOrder)
	case waitConvert:
		var entry valuetype.Value
		entry, err = e.pop()
		if err == nil {
			value, err = valuetype.Convert(entry, vt, e.addrMask)
		}
	case waitReinterpret:
		var entry valuetype.Value
		entry, err = e.pop()
		if err == nil {
			value, err = valuetype.Reinterpret(entry, vt, e.addrMask)
		}
	default:
		panic("dwarf: ResumeWithBaseType called without a preceding RequiresBaseType result")
	}
	if err != nil {
		return e.fail(err)
	}
	e.push(value)
	return e.run()
}

func (e *Evaluator) fail(err error) (EvaluationResult, error) {
	e.lifecycle = lifecycleError
	e.err = err
	return EvaluationResult{}, err
}

func (e *Evaluator) run() (EvaluationResult, error) {
	result, err := e.evaluateInternal()
	if err != nil {
		return e.fail(err)
	}
	return result, nil
}

func (e *Evaluator) pop() (valuetype.Value, error) {
	n := len(e.stack)
	if n == 0 {
		return valuetype.Value{}, ErrNotEnoughStack
	}
	v := e.stack[n-1]
	e.stack = e.stack[:n-1]
	return v, nil
}

func (e *Evaluator) push(v valuetype.Value) {
	e.stack = append(e.stack, v)
}

func (e *Evaluator) popAddress() (uint64, error) {
	v, err := e.pop()
	if err != nil {
		return 0, err
	}
	return v.ToAddress(e.addrMask)
}

// endOfExpression pops finished sub-expressions off the call stack,
// restoring their saved (pc, bytecode), until pc has bytes left or the
// call stack is exhausted.
func (e *Evaluator) endOfExpression() bool {
	for e.pc.IsEmpty() {
		n := len(e.callStack)
		if n == 0 {
			return true
		}
		top := e.callStack[n-1]
		e.callStack = e.callStack[:n-1]
		e.pc = top.pc
		e.bytecode = top.bytecode
	}
	return false
}

// evaluateInternal is the main loop: decode and execute one operation per
// iteration until the bytecode (and any pending call stack) is exhausted.
// A Complete-producing operation's immediately following operation is
// decoded inline, outside the normal per-iteration dispatch, and must
// itself be Piece.
func (e *Evaluator) evaluateInternal() (EvaluationResult, error) {
	for !e.endOfExpression() {
		e.iteration++
		if e.maxIterations != nil && e.iteration > *e.maxIterations {
			return EvaluationResult{}, ErrTooManyIterations
		}

		outcome, err := e.evaluateOneOperation()
		if err != nil {
			return EvaluationResult{}, err
		}

		switch outcome.kind {
		case opPiece:
			// continue

		case opIncomplete:
			if e.endOfExpression() && len(e.result) > 0 {
				return EvaluationResult{}, ErrInvalidPiece
			}

		case opComplete:
			if e.endOfExpression() {
				if len(e.result) > 0 {
					return EvaluationResult{}, ErrInvalidPiece
				}
				e.result = append(e.result, Piece{Location: outcome.location})
			} else {
				next, err := DecodeInstruction(e.pc, e.bytecode, e.addressSize, e.format)
				if err != nil {
					return EvaluationResult{}, err
				}
				if next.Kind != InstrPiece {
					offset := e.pc.OffsetFrom(e.bytecode) - 1
					return EvaluationResult{}, fmt.Errorf(
						"%w: %d", ErrInvalidExpressionTerminator, offset)
				}
				sizeInBits := next.SizeInBits
				e.result = append(e.result, Piece{
					SizeInBits: &sizeInBits,
					BitOffset:  next.BitOffset,
					Location:   outcome.location,
				})
			}

		case opWaiting:
			e.lifecycle = lifecycleWaiting
			e.waiting = outcome.waiting
			return outcome.request, nil
		}
	}

	if len(e.result) == 0 {
		entry, err := e.pop()
		if err != nil {
			return EvaluationResult{}, err
		}
		addr, err := entry.ToAddress(e.addrMask)
		if err != nil {
			return EvaluationResult{}, err
		}
		e.result = append(e.result, Piece{
			Location: PieceLocation{Kind: PieceAddress, Address: addr},
		})
	}

	e.lifecycle = lifecycleComplete
	return EvaluationResult{Kind: ResultComplete}, nil
}

type binIntOp func(lhs, rhs valuetype.Value, addrMask uint64) (valuetype.Value, error)
type unaryIntOp func(v valuetype.Value, addrMask uint64) (valuetype.Value, error)

func (e *Evaluator) binaryOp(op binIntOp) (opOutcome, error) {
	rhs, err := e.pop()
	if err != nil {
		return opOutcome{}, err
	}
	lhs, err := e.pop()
	if err != nil {
		return opOutcome{}, err
	}
	result, err := op(lhs, rhs, e.addrMask)
	if err != nil {
		return opOutcome{}, err
	}
	e.push(result)
	return opOutcome{kind: opIncomplete}, nil
}

func (e *Evaluator) unaryOp(op unaryIntOp) (opOutcome, error) {
	v, err := e.pop()
	if err != nil {
		return opOutcome{}, err
	}
	result, err := op(v, e.addrMask)
	if err != nil {
		return opOutcome{}, err
	}
	e.push(result)
	return opOutcome{kind: opIncomplete}, nil
}

// evaluateOneOperation decodes and executes exactly one operation,
// returning how the main loop should proceed. Operations that need data the
// evaluator can't compute on its own suspend rather than calling back into
// a collaborator directly.
func (e *Evaluator) evaluateOneOperation() (opOutcome, error) {
	instr, err := DecodeInstruction(e.pc, e.bytecode, e.addressSize, e.format)
	if err != nil {
		return opOutcome{}, err
	}

	switch instr.Kind {
	case InstrDeref:
		addr, err := e.popAddress()
		if err != nil {
			return opOutcome{}, err
		}
		var space *uint64
		if instr.Space {
			sv, err := e.popAddress()
			if err != nil {
				return opOutcome{}, err
			}
			space = &sv
		}
		return opOutcome{
			kind:    opWaiting,
			waiting: waitingState{kind: waitMemory},
			request: EvaluationResult{
				Kind:     ResultRequiresMemory,
				Address:  addr,
				Size:     instr.Size,
				Space:    space,
				BaseType: instr.BaseType,
			},
		}, nil

	case InstrPick:
		idx := int(instr.Index)
		if idx >= len(e.stack) {
			return opOutcome{}, ErrNotEnoughStack
		}
		e.push(e.stack[len(e.stack)-1-idx])
		return opOutcome{kind: opIncomplete}, nil

	case InstrDrop:
		if _, err := e.pop(); err != nil {
			return opOutcome{}, err
		}
		return opOutcome{kind: opIncomplete}, nil

	case InstrSwap:
		top, err := e.pop()
		if err != nil {
			return opOutcome{}, err
		}
		next, err := e.pop()
		if err != nil {
			return opOutcome{}, err
		}
		e.push(top)
		e.push(next)
		return opOutcome{kind: opIncomplete}, nil

	case InstrRot:
		one, err := e.pop()
		if err != nil {
			return opOutcome{}, err
		}
		two, err := e.pop()
		if err != nil {
			return opOutcome{}, err
		}
		three, err := e.pop()
		if err != nil {
			return opOutcome{}, err
		}
		e.push(one)
		e.push(three)
		e.push(two)
		return opOutcome{kind: opIncomplete}, nil

	case InstrAbs:
		return e.unaryOp(valuetype.Abs)
	case InstrNeg:
		return e.unaryOp(valuetype.Neg)
	case InstrNot:
		return e.unaryOp(valuetype.Not)

	case InstrAnd:
		return e.binaryOp(valuetype.And)
	case InstrDiv:
		return e.binaryOp(valuetype.Div)
	case InstrMinus:
		return e.binaryOp(valuetype.Sub)
	case InstrMod:
		return e.binaryOp(valuetype.Mod)
	case InstrMul:
		return e.binaryOp(valuetype.Mul)
	case InstrOr:
		return e.binaryOp(valuetype.Or)
	case InstrPlus:
		return e.binaryOp(valuetype.Add)
	case InstrShl:
		return e.binaryOp(valuetype.Shl)
	case InstrShr:
		return e.binaryOp(valuetype.Shr)
	case InstrShra:
		return e.binaryOp(valuetype.Shra)
	case InstrXor:
		return e.binaryOp(valuetype.Xor)
	case InstrEq:
		return e.binaryOp(valuetype.Eq)
	case InstrGe:
		return e.binaryOp(valuetype.Ge)
	case InstrGt:
		return e.binaryOp(valuetype.Gt)
	case InstrLe:
		return e.binaryOp(valuetype.Le)
	case InstrLt:
		return e.binaryOp(valuetype.Lt)
	case InstrNe:
		return e.binaryOp(valuetype.Ne)

	case InstrPlusConstant:
		lhs, err := e.pop()
		if err != nil {
			return opOutcome{}, err
		}
		result, err := valuetype.PlusConstant(lhs, instr.Value, e.addrMask)
		if err != nil {
			return opOutcome{}, err
		}
		e.push(result)
		return opOutcome{kind: opIncomplete}, nil

	case InstrBra:
		addr, err := e.popAddress()
		if err != nil {
			return opOutcome{}, err
		}
		if addr != 0 {
			e.pc = instr.Target.Clone()
		}
		return opOutcome{kind: opIncomplete}, nil

	case InstrSkip:
		e.pc = instr.Target.Clone()
		return opOutcome{kind: opIncomplete}, nil

	case InstrLiteral:
		e.push(valuetype.Generic(instr.Value))
		return opOutcome{kind: opIncomplete}, nil

	case InstrRegisterOffset:
		return opOutcome{
			kind:    opWaiting,
			waiting: waitingState{kind: waitRegister, offset: instr.Offset},
			request: EvaluationResult{
				Kind:     ResultRequiresRegister,
				Register: instr.Register,
				BaseType: instr.BaseType,
			},
		}, nil

	case InstrFrameOffset:
		return opOutcome{
			kind:    opWaiting,
			waiting: waitingState{kind: waitFrameBase, offset: instr.Offset},
			request: EvaluationResult{Kind: ResultRequiresFrameBase},
		}, nil

	case InstrPushObjectAddress:
		if e.objectAddress == nil {
			return opOutcome{}, ErrInvalidPushObjectAddress
		}
		e.push(valuetype.Generic(*e.objectAddress))
		return opOutcome{kind: opIncomplete}, nil

	case InstrCall:
		return opOutcome{
			kind:    opWaiting,
			waiting: waitingState{kind: waitAtLocation},
			request: EvaluationResult{Kind: ResultRequiresAtLocation, Callee: instr.Callee},
		}, nil

	case InstrTLS:
		index, err := e.popAddress()
		if err != nil {
			return opOutcome{}, err
		}
		return opOutcome{
			kind:    opWaiting,
			waiting: waitingState{kind: waitTls},
			request: EvaluationResult{Kind: ResultRequiresTls, Slot: index},
		}, nil

	case InstrCallFrameCFA:
		return opOutcome{
			kind:    opWaiting,
			waiting: waitingState{kind: waitCfa},
			request: EvaluationResult{Kind: ResultRequiresCallFrameCfa},
		}, nil

	case InstrNop:
		return opOutcome{kind: opIncomplete}, nil

	case InstrRegister:
		return opOutcome{
			kind:     opComplete,
			location: PieceLocation{Kind: PieceRegister, Register: instr.Register},
		}, nil

	case InstrImplicitValue:
		return opOutcome{
			kind:     opComplete,
			location: PieceLocation{Kind: PieceBytes, Bytes: instr.Data},
		}, nil

	case InstrStackValue:
		v, err := e.pop()
		if err != nil {
			return opOutcome{}, err
		}
		return opOutcome{
			kind:     opComplete,
			location: PieceLocation{Kind: PieceValue, Value: v},
		}, nil

	case InstrImplicitPointer:
		return opOutcome{
			kind: opComplete,
			location: PieceLocation{
				Kind:       PieceImplicitPointer,
				DieOffset:  instr.Value,
				ByteOffset: instr.Offset,
			},
		}, nil

	case InstrEntryValue:
		return opOutcome{
			kind:    opWaiting,
			waiting: waitingState{kind: waitEntryValue},
			request: EvaluationResult{
				Kind:            ResultRequiresEntryValue,
				EntryExpression: instr.Data,
			},
		}, nil

	case InstrParameterRef:
		return opOutcome{
			kind:    opWaiting,
			waiting: waitingState{kind: waitParameterRef},
			request: EvaluationResult{
				Kind:            ResultRequiresParameterRef,
				ParameterOffset: instr.Value,
			},
		}, nil

	case InstrAddress:
		return opOutcome{
			kind:    opWaiting,
			waiting: waitingState{kind: waitRelocatedAddress},
			request: EvaluationResult{Kind: ResultRequiresRelocatedAddress, Address: instr.Value},
		}, nil

	case InstrPiece:
		var loc PieceLocation
		if len(e.stack) == 0 {
			loc = PieceLocation{Kind: PieceEmpty}
		} else {
			entry, err := e.pop()
			if err != nil {
				return opOutcome{}, err
			}
			addr, err := entry.ToAddress(e.addrMask)
			if err != nil {
				return opOutcome{}, err
			}
			loc = PieceLocation{Kind: PieceAddress, Address: addr}
		}
		sizeInBits := instr.SizeInBits
		e.result = append(e.result, Piece{
			SizeInBits: &sizeInBits,
			BitOffset:  instr.BitOffset,
			Location:   loc,
		})
		return opOutcome{kind: opPiece}, nil

	case InstrTypedLiteral:
		return opOutcome{
			kind:    opWaiting,
			waiting: waitingState{kind: waitTypedLiteral, literal: instr.Data},
			request: EvaluationResult{Kind: ResultRequiresBaseType, BaseType: instr.BaseType},
		}, nil

	case InstrConvert:
		return opOutcome{
			kind:    opWaiting,
			waiting: waitingState{kind: waitConvert},
			request: EvaluationResult{Kind: ResultRequiresBaseType, BaseType: instr.BaseType},
		}, nil

	case InstrReinterpret:
		return opOutcome{
			kind:    opWaiting,
			waiting: waitingState{kind: waitReinterpret},
			request: EvaluationResult{Kind: ResultRequiresBaseType, BaseType: instr.BaseType},
		}, nil

	default:
		return opOutcome{}, fmt.Errorf("%w: unhandled instruction kind %d", ErrInvalidExpression, instr.Kind)
	}
}
