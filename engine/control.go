package engine

import (
	"errors"

	"github.com/moffa90/go-npedl/npe"
	"github.com/moffa90/go-npedl/regbus"
)

// Refresh samples the run/stop status when the state is unknown. Other states
// are kept.
func (e *Engine) Refresh() State {
	if e.state != StateUnknown {
		return e.state
	}
	switch status := e.bus.Read(npe.RegEXCTL); {
	case status&npe.StatusStop != 0:
		e.state = StateStopped
	case status&npe.StatusRun != 0:
		e.state = StateRunning
	}
	return e.state
}

// Stop halts the engine and waits for the stop status. The stop counter
// counts every command issued, successful or not.
func (e *Engine) Stop() error {
	if e.state == StateUnresponsive {
		return &StateError{Op: "stop", State: e.state}
	}

	e.bus.Write(npe.RegEXCTL, npe.CmdStop)
	e.stats.Stops++

	err := regbus.Poll(e.config.StatusPolls, func() bool {
		return regbus.BitsSet(e.bus, npe.RegEXCTL, npe.StatusStop)
	})
	if err != nil {
		got := e.bus.Read(npe.RegEXCTL)
		e.logError("Engine did not stop", "status", got)
		return &StatusError{Op: "stop", Want: npe.StatusStop, Got: got}
	}
	e.state = StateStopped
	e.logDebug("Engine stopped")
	return nil
}

// Start clears any pending level activity and starts the engine from the
// program counter in the background level register 0.
func (e *Engine) Start() error {
	if s := e.Refresh(); s != StateStopped {
		return &StateError{Op: "start", State: s}
	}

	for _, reg := range []uint32{npe.ECSPri1Reg0, npe.ECSPri2Reg0, npe.ECSDbgReg0} {
		e.WriteECS(reg, npe.ClearActive(e.ReadECS(reg)))
	}
	e.bus.Write(npe.RegEXCTL, npe.CmdClearPipe)
	e.bus.Write(npe.RegEXCTL, npe.CmdStart)

	err := regbus.Poll(e.config.StatusPolls, func() bool {
		return regbus.BitsSet(e.bus, npe.RegEXCTL, npe.StatusRun)
	})
	if err != nil {
		got := e.bus.Read(npe.RegEXCTL)
		e.logError("Engine did not start", "status", got)
		return &StatusError{Op: "start", Want: npe.StatusRun, Got: got}
	}
	e.state = StateRunning
	e.stats.Starts++
	e.logDebug("Engine started")
	return nil
}

// Reset returns a stopped engine to its power-up state: FIFOs and mailbox
// drained, register file and context store cleared, execution context stack
// restored, counters and action points zeroed, and the engine pulsed through
// the feature control register. Parity interrupts are masked while it runs.
//
// Any failure leaves the engine unresponsive.
func (e *Engine) Reset() error {
	if s := e.Refresh(); s != StateStopped {
		return &StateError{Op: "reset", State: s}
	}
	e.state = StateResetting
	e.logDebug("Resetting engine")

	if err := e.reset(); err != nil {
		e.state = StateUnresponsive
		e.logError("Engine reset failed", "error", err)
		return err
	}

	e.state = StateStopped
	e.stats.Resets++
	e.logDebug("Engine reset")
	return nil
}

func (e *Engine) reset() error {
	ctl := e.bus.Read(npe.RegCTL)
	e.bus.Write(npe.RegCTL, (ctl|npe.CTLParityForce)&npe.CTLParityMask)

	err := e.DebugSession(func() error {
		if err := e.drainFIFOs(); err != nil {
			return err
		}

		e.bus.Write(npe.RegMBST, npe.MailboxReset)
		if err := e.Exec(npe.InstrResetMbox, 0, npe.LDurWrite); err != nil {
			return err
		}

		for i := uint32(0); i < npe.NumPhysicalRegisters; i++ {
			if err := e.WritePhysical(i, 0, true); err != nil {
				return err
			}
		}

		for ctx := uint32(0); ctx < npe.NumContexts; ctx++ {
			for reg := npe.CtxSTEVT; reg <= npe.CtxCINDEX; reg++ {
				if !npe.ValidContextReg(ctx, reg) {
					continue
				}
				if err := e.WriteContextRegister(ctx, reg, reg.Info().Reset, true); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, r := range npe.ECSResetValues {
		e.WriteECS(r.Reg, r.Value)
	}

	e.bus.Write(npe.RegEXCTL, npe.CmdClearProfileCnt)
	for _, reg := range []uint32{npe.RegEXCT, npe.RegAP0, npe.RegAP1, npe.RegAP2, npe.RegAP3, npe.RegWC} {
		e.bus.Write(reg, 0)
	}

	if err := e.pulseFeatureReset(); err != nil {
		return err
	}

	if err := e.Stop(); err != nil {
		return err
	}

	e.bus.Write(npe.RegCTL, (ctl|npe.CTLParityForce)&npe.CTLRestoreMask)
	return nil
}

// drainFIFOs empties the watchpoint FIFO, the output FIFO and, through the
// debug level, the input FIFO. Each drain pops at most bound entries; a FIFO
// found empty after its last pop is drained.
func (e *Engine) drainFIFOs() error {
	bound := e.config.FIFODrain

	watchEmpty := func() bool {
		// the read pops the entry it reports
		return e.bus.Read(npe.RegWFIFO)&npe.WFIFOValid == 0
	}
	if err := regbus.Poll(bound, watchEmpty); err != nil && !watchEmpty() {
		return &TimeoutError{Op: "drain watchpoint FIFO", Polls: bound}
	}

	outEmpty := func() bool {
		return !regbus.BitsSet(e.bus, npe.RegSTAT, npe.StatOutFIFONotEmpty)
	}
	err := regbus.Poll(bound, func() bool {
		if outEmpty() {
			return true
		}
		e.bus.Read(npe.RegFIFO)
		return false
	})
	if err != nil && !outEmpty() {
		return &TimeoutError{Op: "drain output FIFO", Polls: bound}
	}

	inEmpty := func() bool {
		return !regbus.BitsSet(e.bus, npe.RegSTAT, npe.StatInFIFONotEmpty)
	}
	err = regbus.PollErr(bound, func() (bool, error) {
		if inEmpty() {
			return true, nil
		}
		return false, e.Exec(npe.InstrRdFIFO, 0, npe.LDurRead)
	})
	switch {
	case errors.Is(err, regbus.ErrPollExhausted):
		if !inEmpty() {
			return &TimeoutError{Op: "drain input FIFO", Polls: bound}
		}
	case err != nil:
		return err
	}
	return nil
}

// pulseFeatureReset sets then clears the engine's bit in the feature control
// register, which resets the engine and its coprocessor.
func (e *Engine) pulseFeatureReset() error {
	if e.features == nil {
		return nil
	}
	v, err := e.features.ReadFeatures()
	if err != nil {
		return npe.Wrap(npe.CodeCriticalEngine, "read feature control", err)
	}
	if err := e.features.WriteFeatures(v | e.id.ResetBit()); err != nil {
		return npe.Wrap(npe.CodeCriticalEngine, "write feature control", err)
	}
	if err := e.features.WriteFeatures(v &^ e.id.ResetBit()); err != nil {
		return npe.Wrap(npe.CodeCriticalEngine, "write feature control", err)
	}
	return nil
}
