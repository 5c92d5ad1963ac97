package valuetype

import "errors"

var (
	ErrTypeMismatch     = errors.New("value type mismatch")
	ErrFloatOperation   = errors.New("invalid operation on floating point value")
	ErrArithmetic       = errors.New("arithmetic error")
	ErrShortTypedLiteral = errors.New("typed literal data too short")
	ErrUnsupportedWidth  = errors.New("unsupported value width")
)
