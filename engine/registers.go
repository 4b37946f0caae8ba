package engine

import (
	"fmt"

	"github.com/moffa90/go-npedl/npe"
)

const numLogicalAddrs = 32

func checkLogical(op string, addr uint32, size npe.RegSize, ctx uint32) error {
	switch {
	case !size.Valid():
		return npe.Errorf(npe.CodeParam, op, "invalid register size %d", uint8(size))
	case ctx >= npe.NumContexts:
		return npe.Errorf(npe.CodeParam, op, "context %d out of range", ctx)
	case addr >= numLogicalAddrs:
		return npe.Errorf(npe.CodeParam, op, "register address 0x%X out of range", addr)
	case addr%(uint32(size)/8) != 0:
		return npe.Errorf(npe.CodeParam, op, "%s register address 0x%X is unaligned", size, addr)
	}
	return nil
}

// ReadLogical returns the logical register of the given size at addr as seen
// from context ctx.
func (e *Engine) ReadLogical(addr uint32, size npe.RegSize, ctx uint32) (uint32, error) {
	if err := checkLogical("read register", addr, size, ctx); err != nil {
		return 0, err
	}
	if err := e.Exec(npe.ReadInstr(addr, size), ctx, npe.LDurRead); err != nil {
		return 0, err
	}
	return npe.ExtractRead(e.bus.Read(npe.RegEXDATA), addr, size), nil
}

// WriteLogical writes value to the logical register of the given size at
// addr in context ctx. A word is written as two shorts, high half first. With
// verify every write is read back.
func (e *Engine) WriteLogical(addr, value uint32, size npe.RegSize, ctx uint32, verify bool) error {
	if err := checkLogical("write register", addr, size, ctx); err != nil {
		return err
	}

	if size == npe.Word {
		if err := e.WriteLogical(addr, value>>16, npe.Short, ctx, verify); err != nil {
			return err
		}
		return e.WriteLogical(addr+2, value&0xFFFF, npe.Short, ctx, verify)
	}

	instr, err := npe.WriteInstr(addr, value, size)
	if err != nil {
		return npe.Wrap(npe.CodeParam, "write register", err)
	}
	if err := e.Exec(instr, ctx, npe.LDurWrite); err != nil {
		return err
	}
	if !verify {
		return nil
	}

	got, err := e.ReadLogical(addr, size, ctx)
	if err != nil {
		return err
	}
	if want := value & size.Mask(); got != want {
		return &VerifyError{
			Target: fmt.Sprintf("context %d %s register", ctx, size),
			Addr:   addr,
			Wrote:  want,
			Read:   got,
		}
	}
	return nil
}

// WritePhysical writes one register of the physical register file. The
// register pair is selected through the register map of context 0, then the
// word is written through the mapped logical window.
func (e *Engine) WritePhysical(idx, value uint32, verify bool) error {
	if idx >= npe.NumPhysicalRegisters {
		return npe.Errorf(npe.CodeParam, "write physical register", "register %d out of range", idx)
	}
	regmap := npe.CtxREGMAP.Info()
	if err := e.WriteLogical(regmap.Addr, idx>>1, regmap.Size, 0, verify); err != nil {
		return err
	}
	if err := e.WriteLogical((idx&1)*4, value, npe.Word, 0, verify); err != nil {
		return err
	}
	e.stats.PhysicalRegWrites++
	return nil
}

// WriteContextRegister writes a context store register. The start program
// counter of context 0 lives in the background level register 0 instead of
// the store and is written there, without read-back.
func (e *Engine) WriteContextRegister(ctx uint32, reg npe.ContextReg, value uint32, verify bool) error {
	if !npe.ValidContextReg(ctx, reg) {
		return npe.Errorf(npe.CodeParam, "write context register", "no context register %s in context %d", reg, ctx)
	}

	if ctx == 0 && reg == npe.CtxSTARTPC {
		reg0 := e.ReadECS(npe.ECSBgReg0)
		e.WriteECS(npe.ECSBgReg0, npe.WithNextPC(reg0, value))
		e.stats.NextPCWrites++
		return nil
	}

	info := reg.Info()
	if err := e.WriteLogical(info.Addr, value, info.Size, ctx, verify); err != nil {
		return err
	}
	e.stats.ContextRegWrites++
	return nil
}

// ReadContextRegister returns a context store register.
func (e *Engine) ReadContextRegister(ctx uint32, reg npe.ContextReg) (uint32, error) {
	if !npe.ValidContextReg(ctx, reg) {
		return 0, npe.Errorf(npe.CodeParam, "read context register", "no context register %s in context %d", reg, ctx)
	}
	if ctx == 0 && reg == npe.CtxSTARTPC {
		return npe.NextPC(e.ReadECS(npe.ECSBgReg0)), nil
	}
	info := reg.Info()
	return e.ReadLogical(info.Addr, info.Size, ctx)
}
