package dwarf

import "errors"

// Sentinel errors surfaced by the expression decoder and evaluator.
// Wrapped with fmt.Errorf("...: %w", Err...) and a context value (byte
// offset, opcode, ...) the same way the rest of this package wraps
// cursor.go's decode errors.
var (
	ErrUnexpectedEOF               = errors.New("unexpected end of expression")
	ErrInvalidExpression           = errors.New("invalid expression opcode")
	ErrBadBranchTarget             = errors.New("branch target out of bounds")
	ErrNotEnoughStack              = errors.New("not enough stack items")
	ErrInvalidPushObjectAddress    = errors.New("push_object_address without a configured object address")
	ErrTooManyIterations           = errors.New("too many expression iterations")
	ErrInvalidPiece                = errors.New("invalid location piece")
	ErrInvalidExpressionTerminator = errors.New("operation not followed by a piece terminator")
)
