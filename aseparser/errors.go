package aseparser

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is the root of every malformed-input error.
	ErrFormat = errors.New("aseparser: invalid format")
	// ErrInvalidMagic is returned when the file or frame magic number is wrong.
	ErrInvalidMagic = fmt.Errorf("%w: invalid magic number", ErrFormat)
	// ErrOutOfBounds is returned when a read runs past the end of the data.
	ErrOutOfBounds = fmt.Errorf("%w: unexpected end of data", ErrFormat)
	// ErrUnsupported is returned for features the decoder refuses to handle,
	// such as raw cels.
	ErrUnsupported = errors.New("aseparser: unsupported feature")
)

// Parse stages reported by DecodeError.
const (
	StageHeader    = "header"
	StageFrame     = "frame"
	StageChunk     = "chunk"
	StageCel       = "cel"
	StageComposite = "composite"
)

// DecodeError reports where a parse failed. Frame is -1 for header errors.
type DecodeError struct {
	Stage  string
	Frame  int
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Frame < 0 {
		return fmt.Sprintf("aseparser: %s at offset %d: %v", e.Stage, e.Offset, e.Err)
	}
	return fmt.Sprintf("aseparser: frame %d: %s at offset %d: %v", e.Frame, e.Stage, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
