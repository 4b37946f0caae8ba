package engine

import (
	"github.com/moffa90/go-npedl/npe"
	"github.com/moffa90/go-npedl/regbus"
)

// Exec single-steps instr in context ctx through the debug level and waits
// for the watch count to advance. A timeout marks the engine unresponsive.
//
// Exec must run between PreExec and PostExec, or inside DebugSession.
func (e *Engine) Exec(instr, ctx, ldur uint32) error {
	if e.state == StateUnresponsive {
		return &StateError{Op: "exec", State: e.state}
	}

	e.WriteECS(npe.ECSDbgReg0, npe.DebugActivate(ldur))
	e.WriteECS(npe.ECSDbgReg1, npe.ContextSelect(ctx))
	e.bus.Write(npe.RegEXCTL, npe.CmdClearPipe)
	e.WriteECS(npe.ECSInstruct, instr)

	wc := e.bus.Read(npe.RegWC)
	e.bus.Write(npe.RegEXCTL, npe.CmdStep)

	err := regbus.Poll(e.config.ExecPolls, func() bool {
		return e.bus.Read(npe.RegWC) != wc
	})
	if err != nil {
		e.state = StateUnresponsive
		e.logError("Debug instruction timed out",
			"instruction", instr, "context", ctx, "polls", e.config.ExecPolls)
		return &TimeoutError{Op: "exec", Polls: e.config.ExecPolls}
	}
	e.stats.DebugInstructions++
	return nil
}

// PreExec prepares the engine for debug execution. The execution count is
// cleared and the debug level interrupts are enabled; both are saved for
// PostExec.
func (e *Engine) PreExec() {
	e.savedEXCT = e.bus.Read(npe.RegEXCT)
	e.bus.Write(npe.RegEXCT, 0)

	e.savedDbgReg2 = e.ReadECS(npe.ECSDbgReg2)
	e.WriteECS(npe.ECSDbgReg2, npe.EnableDebugInterrupts(e.savedDbgReg2))
}

// PostExec deactivates the debug level and restores what PreExec saved.
func (e *Engine) PostExec() {
	e.WriteECS(npe.ECSDbgReg0, 0)
	e.bus.Write(npe.RegEXCTL, npe.CmdClearPipe)
	e.bus.Write(npe.RegEXCT, e.savedEXCT)
	e.WriteECS(npe.ECSDbgReg2, e.savedDbgReg2)
}

// DebugSession runs fn between PreExec and PostExec. PostExec runs even when
// fn fails.
func (e *Engine) DebugSession(fn func() error) error {
	e.PreExec()
	defer e.PostExec()
	return fn()
}
