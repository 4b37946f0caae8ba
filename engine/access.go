package engine

import (
	"github.com/moffa90/go-npedl/npe"
)

// ReadECS returns the execution context stack register reg.
func (e *Engine) ReadECS(reg uint32) uint32 {
	e.bus.Write(npe.RegEXAD, reg)
	e.bus.Write(npe.RegEXCTL, npe.CmdReadECS)

	// the data register needs a few reads to settle after the command
	var v uint32
	for i := 0; i < 3; i++ {
		v = e.bus.Read(npe.RegEXDATA)
	}
	e.stats.ECSRegReads++
	return v
}

// WriteECS sets the execution context stack register reg to value.
func (e *Engine) WriteECS(reg, value uint32) {
	e.bus.Write(npe.RegEXDATA, value)
	e.bus.Write(npe.RegEXAD, reg)
	e.bus.Write(npe.RegEXCTL, npe.CmdWriteECS)
	e.stats.ECSRegWrites++
}

// ReadMemory returns the word at addr of the instruction or data memory.
func (e *Engine) ReadMemory(kind npe.MemoryKind, addr uint32) uint32 {
	e.bus.Write(npe.RegEXAD, addr)
	e.bus.Write(npe.RegEXCTL, kind.ReadCmd())
	return e.bus.Read(npe.RegEXDATA)
}

// WriteMemory writes one word of the instruction or data memory. With verify
// the word is read back and a mismatch returns a *VerifyError.
func (e *Engine) WriteMemory(kind npe.MemoryKind, addr, value uint32, verify bool) error {
	e.bus.Write(npe.RegEXDATA, value)
	e.bus.Write(npe.RegEXAD, addr)
	e.bus.Write(npe.RegEXCTL, kind.WriteCmd())
	e.countMemWrite(kind, false)

	if !verify {
		return nil
	}

	// preload the data register with the complement so a read command that
	// never lands cannot pass
	e.bus.Write(npe.RegEXDATA, ^value)
	if got := e.ReadMemory(kind, addr); got != value {
		e.countMemWrite(kind, true)
		return &VerifyError{Target: kind.String() + " memory", Addr: addr, Wrote: value, Read: got}
	}
	return nil
}

func (e *Engine) countMemWrite(kind npe.MemoryKind, failed bool) {
	switch {
	case kind == npe.Instruction && failed:
		e.stats.InsMemWriteFails++
	case kind == npe.Instruction:
		e.stats.InsMemWrites++
	case failed:
		e.stats.DataMemWriteFails++
	default:
		e.stats.DataMemWrites++
	}
}
