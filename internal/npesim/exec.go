package npesim

import "github.com/moffa90/go-npedl/npe"

// execute runs one debug instruction in context ctx.
func (e *Engine) execute(instr, ctx uint32) {
	switch instr {
	case npe.InstrRdFIFO:
		if len(e.inFIFO) > 0 {
			e.exdata = e.inFIFO[0]
			e.inFIFO = e.inFIFO[1:]
		}
		return
	case npe.InstrResetMbox:
		e.MailboxEngineReset = true
		return
	}

	src, dest, _ := npe.Operands(instr)
	switch instr & npe.InstrOpcodeMask {
	case npe.InstrWrRegByte:
		e.store(ctx, dest, npe.Byte, npe.Immediate(instr))
	case npe.InstrWrRegShort:
		e.store(ctx, dest, npe.Short, npe.Immediate(instr))
	case npe.InstrRdRegByte:
		e.exdata = e.latch(ctx, src, npe.Byte)
	case npe.InstrRdRegShort:
		e.exdata = e.latch(ctx, src, npe.Short)
	case npe.InstrRdRegWord:
		e.exdata = e.latch(ctx, src, npe.Word)
	}
}

// contextReg returns the context store register addressed by (addr, size).
func contextReg(addr uint32, size npe.RegSize) (npe.ContextReg, bool) {
	for r := npe.CtxSTEVT; r <= npe.CtxCINDEX; r++ {
		if info := r.Info(); info.Addr == addr && info.Size == size {
			return r, true
		}
	}
	return 0, false
}

func (e *Engine) store(ctx, addr uint32, size npe.RegSize, v uint32) {
	if r, ok := contextReg(addr, size); ok {
		e.ctxStore[ctx][r] = v & size.Mask()
		return
	}
	n := uint32(size) / 8
	for i := uint32(0); i < n; i++ {
		shift := 8 * (n - 1 - i)
		e.setByte(ctx, addr+i, byte(v>>shift))
	}
}

// latch returns the RegEXDATA value after a read of (addr, size).
func (e *Engine) latch(ctx, addr uint32, size npe.RegSize) uint32 {
	if r, ok := contextReg(addr, size); ok {
		shift := 32 - uint32(size) - (addr%4)*8
		return e.ctxStore[ctx][r] << shift
	}
	base := addr &^ 3
	var w uint32
	for i := uint32(0); i < 4; i++ {
		w = w<<8 | uint32(e.getByte(ctx, base+i))
	}
	return w
}

// physIndex maps a logical address below physWindowSize onto the register
// file through the context's register map.
func (e *Engine) physIndex(ctx, addr uint32) uint32 {
	pair := e.ctxStore[ctx][npe.CtxREGMAP] & 0xF
	return pair*2 + addr/4
}

func (e *Engine) getByte(ctx, addr uint32) byte {
	addr %= logicalBytes
	if addr < physWindowSize {
		w := e.phys[e.physIndex(ctx, addr)]
		return byte(w >> (24 - 8*(addr%4)))
	}
	return e.logical[ctx][addr]
}

func (e *Engine) setByte(ctx, addr uint32, b byte) {
	addr %= logicalBytes
	if addr < physWindowSize {
		idx := e.physIndex(ctx, addr)
		shift := 24 - 8*(addr%4)
		e.phys[idx] = e.phys[idx]&^(0xFF<<shift) | uint32(b)<<shift
		return
	}
	e.logical[ctx][addr] = b
}
