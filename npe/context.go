package npe

import "fmt"

// ContextReg names one of the four context store registers of a context.
type ContextReg uint8

const (
	// CtxSTEVT holds the event selection; context 0 has none
	CtxSTEVT ContextReg = iota

	// CtxSTARTPC holds the start program counter
	CtxSTARTPC

	// CtxREGMAP maps the logical register pairs onto the physical register file
	CtxREGMAP

	// CtxCINDEX holds the context index
	CtxCINDEX
)

func (r ContextReg) String() string {
	switch r {
	case CtxSTEVT:
		return "STEVT"
	case CtxSTARTPC:
		return "STARTPC"
	case CtxREGMAP:
		return "REGMAP"
	case CtxCINDEX:
		return "CINDEX"
	default:
		return fmt.Sprintf("ctxreg(%d)", uint8(r))
	}
}

// ContextRegInfo is the logical address, width and reset value of a context
// store register.
type ContextRegInfo struct {
	Addr  uint32
	Size  RegSize
	Reset uint32
}

var contextRegs = [NumContextRegisters]ContextRegInfo{
	CtxSTEVT:   {Addr: 0x1B, Size: Byte, Reset: 0x80},
	CtxSTARTPC: {Addr: 0x1C, Size: Short, Reset: 0x0000},
	CtxREGMAP:  {Addr: 0x1E, Size: Short, Reset: 0x0820},
	CtxCINDEX:  {Addr: 0x1F, Size: Byte, Reset: 0x00},
}

// Info returns the address, width and reset value of r.
func (r ContextReg) Info() ContextRegInfo {
	return contextRegs[r]
}

// ValidContextReg reports whether (ctx, reg) names a context store register
// that exists.
func ValidContextReg(ctx uint32, reg ContextReg) bool {
	if ctx >= NumContexts || reg >= NumContextRegisters {
		return false
	}
	return !(ctx == 0 && reg == CtxSTEVT)
}

// State-info address word layout.
const (
	stateAddrRegMask  = 0x0F
	stateAddrCtxMask  = 0xF0
	stateAddrCtxShift = 4
)

// ContextRegAddr is a decoded state-info address word.
type ContextRegAddr struct {
	Context uint32
	Reg     ContextReg
}

// DecodeContextRegAddr splits a state-info address word into its context and
// register numbers. It does not check validity.
func DecodeContextRegAddr(info uint32) ContextRegAddr {
	return ContextRegAddr{
		Context: (info & stateAddrCtxMask) >> stateAddrCtxShift,
		Reg:     ContextReg(info & stateAddrRegMask),
	}
}

// Encode packs a into a state-info address word.
func (a ContextRegAddr) Encode() uint32 {
	return a.Context<<stateAddrCtxShift&stateAddrCtxMask | uint32(a.Reg)&stateAddrRegMask
}

// Valid reports whether a names an existing context store register.
func (a ContextRegAddr) Valid() bool {
	return ValidContextReg(a.Context, a.Reg)
}
