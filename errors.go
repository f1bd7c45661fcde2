package glshim

import "errors"

// ErrorCode is the polled GL-level error channel. Validation failures set a
// code on the Context instead of propagating as Go errors; the application
// discovers them only by calling GetError, which clears the code. Only the
// first error since the last poll is retained.
//
// The taxonomy is closed: these are the standard codes of the emulated API
// and no new kinds are invented.
type ErrorCode uint32

const (
	// NoError means no error has been recorded since the last poll.
	NoError ErrorCode = 0

	// InvalidEnum: an enumeration argument is out of range.
	InvalidEnum ErrorCode = 0x0500

	// InvalidValue: a numeric argument is out of range.
	InvalidValue ErrorCode = 0x0501

	// InvalidOperation: the operation is not allowed in the current state.
	InvalidOperation ErrorCode = 0x0502

	// OutOfMemory: a fixed-capacity table or memory region is exhausted.
	OutOfMemory ErrorCode = 0x0505

	// InvalidFramebufferOperation: the bound framebuffer is not complete.
	InvalidFramebufferOperation ErrorCode = 0x0506
)

// String returns the conventional error name.
func (e ErrorCode) String() string {
	switch e {
	case NoError:
		return "NO_ERROR"
	case InvalidEnum:
		return "INVALID_ENUM"
	case InvalidValue:
		return "INVALID_VALUE"
	case InvalidOperation:
		return "INVALID_OPERATION"
	case OutOfMemory:
		return "OUT_OF_MEMORY"
	case InvalidFramebufferOperation:
		return "INVALID_FRAMEBUFFER_OPERATION"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Go-level errors. These are fatal conditions (configuration and device
// problems), distinct from the recoverable polled ErrorCode channel.
var (
	// ErrNoDriver is returned by NewContext when no driver is supplied.
	ErrNoDriver = errors.New("glshim: no driver")

	// ErrDriverInit is wrapped around driver initialization failures.
	ErrDriverInit = errors.New("glshim: driver initialization failed")
)

// setError records a GL error code. First error wins: if a code is already
// pending, later codes are dropped until the application polls.
func (c *Context) setError(code ErrorCode) {
	if c.err != NoError {
		return
	}
	c.err = code
	Logger().Warn("gl error recorded", "code", code.String())
}

// GetError returns the first error recorded since the previous call and
// clears it. Returns NoError when nothing went wrong.
func (c *Context) GetError() ErrorCode {
	e := c.err
	c.err = NoError
	return e
}
