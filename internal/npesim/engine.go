// Package npesim simulates the register window of a network processing
// engine, the feature control block and a window mapper. It models enough of
// the engine for the loader to run end to end: indirect memory and execution
// context stack access, single-stepping debug instructions against the
// logical register space, the context store, the FIFOs and run/stop status.
package npesim

import (
	"github.com/moffa90/go-npedl/npe"
)

const (
	numECSRegs     = npe.ECSInstruct + 1
	logicalBytes   = 32
	physWindowSize = 8
)

// Engine is a simulated engine register window. It implements regbus.Bus.
type Engine struct {
	// StallWatchCount stops the watch count from advancing on a step.
	StallWatchCount bool

	// IgnoreStop makes the stop command a no-op.
	IgnoreStop bool

	// IgnoreStart makes the start command a no-op.
	IgnoreStart bool

	// StuckIns lists instruction memory addresses that drop writes.
	StuckIns map[uint32]bool

	// Counters of register traffic.
	Reads    int
	Writes   int
	Commands map[uint32]int
	Steps    int

	// StartPC is the program counter the engine last started from.
	StartPC uint32

	// MailboxHostReset and MailboxEngineReset record the two mailbox resets.
	MailboxHostReset   bool
	MailboxEngineReset bool

	exad, exdata uint32
	exct, wc     uint32
	ap           [4]uint32
	profct       uint32
	ctl, mbst    uint32
	running      bool

	ecs  [numECSRegs]uint32
	ins  []uint32
	data []uint32

	phys     [npe.NumPhysicalRegisters]uint32
	logical  [npe.NumContexts][logicalBytes]byte
	ctxStore [npe.NumContexts][npe.NumContextRegisters]uint32

	inFIFO, outFIFO, watchFIFO []uint32
}

// New returns a stopped engine with memories sized by l.
func New(l npe.Layout) *Engine {
	e := &Engine{
		Commands: make(map[uint32]int),
		ins:      make([]uint32, l.InsWords),
		data:     make([]uint32, l.DataWords),
	}
	for _, r := range npe.ECSResetValues {
		e.ecs[r.Reg] = r.Value
	}
	return e
}

// Read implements regbus.Bus.
func (e *Engine) Read(offset uint32) uint32 {
	e.Reads++
	switch offset {
	case npe.RegEXAD:
		return e.exad
	case npe.RegEXDATA:
		return e.exdata
	case npe.RegEXCTL:
		if e.running {
			return npe.StatusRun
		}
		return npe.StatusStop
	case npe.RegEXCT:
		return e.exct
	case npe.RegAP0, npe.RegAP1, npe.RegAP2, npe.RegAP3:
		return e.ap[(offset-npe.RegAP0)/4]
	case npe.RegWFIFO:
		if len(e.watchFIFO) == 0 {
			return 0
		}
		v := e.watchFIFO[0]
		e.watchFIFO = e.watchFIFO[1:]
		return v | npe.WFIFOValid
	case npe.RegWC:
		return e.wc
	case npe.RegPROFCT:
		return e.profct
	case npe.RegSTAT:
		var v uint32
		if len(e.outFIFO) > 0 {
			v |= npe.StatOutFIFONotEmpty
		}
		if len(e.inFIFO) > 0 {
			v |= npe.StatInFIFONotEmpty
		}
		return v
	case npe.RegCTL:
		return e.ctl
	case npe.RegMBST:
		return e.mbst
	case npe.RegFIFO:
		if len(e.outFIFO) == 0 {
			return 0
		}
		v := e.outFIFO[0]
		e.outFIFO = e.outFIFO[1:]
		return v
	}
	return 0
}

// Write implements regbus.Bus.
func (e *Engine) Write(offset, value uint32) {
	e.Writes++
	switch offset {
	case npe.RegEXAD:
		e.exad = value
	case npe.RegEXDATA:
		e.exdata = value
	case npe.RegEXCTL:
		e.command(value)
	case npe.RegEXCT:
		e.exct = value
	case npe.RegAP0, npe.RegAP1, npe.RegAP2, npe.RegAP3:
		e.ap[(offset-npe.RegAP0)/4] = value
	case npe.RegWC:
		e.wc = value
	case npe.RegCTL:
		e.ctl = value
	case npe.RegMBST:
		e.mbst = value
		if value == npe.MailboxReset {
			e.MailboxHostReset = true
		}
	case npe.RegFIFO:
		e.inFIFO = append(e.inFIFO, value)
	}
}

func (e *Engine) command(cmd uint32) {
	e.Commands[cmd]++
	switch cmd {
	case npe.CmdStep:
		e.Steps++
		if npe.IsActive(e.ecs[npe.ECSDbgReg0]) {
			e.execute(e.ecs[npe.ECSInstruct], npe.SelectedContext(e.ecs[npe.ECSDbgReg1]))
		}
		if !e.StallWatchCount {
			e.wc++
		}
	case npe.CmdStart:
		if !e.IgnoreStart {
			e.running = true
			e.StartPC = npe.NextPC(e.ecs[npe.ECSBgReg0])
		}
	case npe.CmdStop:
		if !e.IgnoreStop {
			e.running = false
		}
	case npe.CmdClearProfileCnt:
		e.profct = 0
	case npe.CmdReadInsMem:
		e.exdata = readMem(e.ins, e.exad)
	case npe.CmdWriteInsMem:
		if !e.StuckIns[e.exad] {
			writeMem(e.ins, e.exad, e.exdata)
		}
	case npe.CmdReadDataMem:
		e.exdata = readMem(e.data, e.exad)
	case npe.CmdWriteDataMem:
		writeMem(e.data, e.exad, e.exdata)
	case npe.CmdReadECS:
		if e.exad < numECSRegs {
			e.exdata = e.ecs[e.exad]
		}
	case npe.CmdWriteECS:
		if e.exad < numECSRegs {
			e.ecs[e.exad] = e.exdata
		}
	}
}

func readMem(mem []uint32, addr uint32) uint32 {
	if addr >= uint32(len(mem)) {
		return 0
	}
	return mem[addr]
}

func writeMem(mem []uint32, addr, v uint32) {
	if addr < uint32(len(mem)) {
		mem[addr] = v
	}
}

// Running reports whether the engine is executing.
func (e *Engine) Running() bool {
	return e.running
}

// SetRunning forces the run state without a command.
func (e *Engine) SetRunning(running bool) {
	e.running = running
}

// Ins returns the instruction memory.
func (e *Engine) Ins() []uint32 {
	return e.ins
}

// Data returns the data memory.
func (e *Engine) Data() []uint32 {
	return e.data
}

// ECS returns an execution context stack register.
func (e *Engine) ECS(reg uint32) uint32 {
	return e.ecs[reg]
}

// SetECS sets an execution context stack register.
func (e *Engine) SetECS(reg, v uint32) {
	e.ecs[reg] = v
}

// Physical returns a physical register.
func (e *Engine) Physical(idx int) uint32 {
	return e.phys[idx]
}

// SetPhysical sets a physical register.
func (e *Engine) SetPhysical(idx int, v uint32) {
	e.phys[idx] = v
}

// ContextReg returns a context store register.
func (e *Engine) ContextReg(ctx uint32, reg npe.ContextReg) uint32 {
	return e.ctxStore[ctx][reg]
}

// SetContextReg sets a context store register.
func (e *Engine) SetContextReg(ctx uint32, reg npe.ContextReg, v uint32) {
	e.ctxStore[ctx][reg] = v
}

// Registers returns the direct window registers that a reset clears.
func (e *Engine) Registers() (exct uint32, ap [4]uint32, wc uint32) {
	return e.exct, e.ap, e.wc
}

// CTL returns the control register.
func (e *Engine) CTL() uint32 {
	return e.ctl
}

// PushIn queues words on the engine input FIFO.
func (e *Engine) PushIn(words ...uint32) {
	e.inFIFO = append(e.inFIFO, words...)
}

// PushOut queues words on the engine output FIFO.
func (e *Engine) PushOut(words ...uint32) {
	e.outFIFO = append(e.outFIFO, words...)
}

// PushWatch queues words on the watchpoint FIFO.
func (e *Engine) PushWatch(words ...uint32) {
	e.watchFIFO = append(e.watchFIFO, words...)
}

// FIFOsEmpty reports whether every FIFO is drained.
func (e *Engine) FIFOsEmpty() bool {
	return len(e.inFIFO) == 0 && len(e.outFIFO) == 0 && len(e.watchFIFO) == 0
}

// ResetCounters clears the traffic counters.
func (e *Engine) ResetCounters() {
	e.Reads, e.Writes, e.Steps = 0, 0, 0
	e.Commands = make(map[uint32]int)
}
