package engine

import (
	"fmt"

	"github.com/moffa90/go-npedl/npe"
)

// TimeoutError is returned when the engine did not respond within a poll
// bound. It classifies as a critical engine error.
type TimeoutError struct {
	Op    string
	Polls int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: no response after %d polls", e.Op, e.Polls)
}

// Unwrap classifies the timeout.
func (e *TimeoutError) Unwrap() error {
	return npe.ErrCriticalEngine
}

// StatusError is returned when the run/stop status did not reach the wanted
// value after a command.
type StatusError struct {
	Op   string
	Want uint32
	Got  uint32
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status 0x%08X, want bits 0x%08X", e.Op, e.Got, e.Want)
}

// Unwrap classifies the status error as a plain failure.
func (e *StatusError) Unwrap() error {
	return npe.ErrFail
}

// VerifyError is returned when a read-back differs from the value written.
type VerifyError struct {
	// Target names what was written, such as "instruction memory"
	Target string
	Addr   uint32
	Wrote  uint32
	Read   uint32
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verify %s at 0x%X: wrote 0x%08X, read 0x%08X",
		e.Target, e.Addr, e.Wrote, e.Read)
}

// Unwrap classifies the mismatch as a critical engine error.
func (e *VerifyError) Unwrap() error {
	return npe.ErrCriticalEngine
}

// BlockRangeError is returned for a code block that does not fit in the
// engine memory. Nothing of the block is written.
type BlockRangeError struct {
	Kind     npe.MemoryKind
	Addr     uint32
	Size     uint32
	Capacity uint32
}

func (e *BlockRangeError) Error() string {
	return fmt.Sprintf("%s block of %d words at 0x%X exceeds memory of %d words",
		e.Kind, e.Size, e.Addr, e.Capacity)
}

// Unwrap classifies the block as bad microcode.
func (e *BlockRangeError) Unwrap() error {
	return npe.ErrCriticalMicrocode
}

// ContextRegisterError is returned for a state-info entry naming a context
// store register that does not exist.
type ContextRegisterError struct {
	Context uint32
	Reg     npe.ContextReg
}

func (e *ContextRegisterError) Error() string {
	return fmt.Sprintf("no context register %s in context %d", e.Reg, e.Context)
}

// Unwrap classifies the entry as bad microcode.
func (e *ContextRegisterError) Unwrap() error {
	return npe.ErrCriticalMicrocode
}

// StateError is returned when an operation is not allowed in the engine's
// current state.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: engine is %s", e.Op, e.State)
}

// Unwrap classifies the error. An unresponsive engine is a critical engine
// error, any other state a plain failure.
func (e *StateError) Unwrap() error {
	if e.State == StateUnresponsive {
		return npe.ErrCriticalEngine
	}
	return npe.ErrFail
}
