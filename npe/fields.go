package npe

import "github.com/usbarmory/tamago/bits"

// Accessors for the packed execution context stack fields. Each takes the
// register value and returns the updated value so callers can chain them
// between a read and a write of the same register.

// IsActive reports whether the level active bit of an ECS register 0 is set.
func IsActive(reg0 uint32) bool {
	return bits.IsSet(&reg0, ECSReg0Active)
}

// ClearActive returns reg0 with the level active bit cleared.
func ClearActive(reg0 uint32) uint32 {
	bits.Clear(&reg0, ECSReg0Active)
	return reg0
}

// NextPC returns the next program counter field of an ECS register 0.
func NextPC(reg0 uint32) uint32 {
	return bits.Get(&reg0, ECSReg0NextPC, ECSReg0NextPCMask)
}

// WithNextPC returns reg0 with its next program counter field replaced by pc.
func WithNextPC(reg0, pc uint32) uint32 {
	bits.SetN(&reg0, ECSReg0NextPC, ECSReg0NextPCMask, pc)
	return reg0
}

// longDuration returns the long duration field of an ECS register 0.
func longDuration(reg0 uint32) uint32 {
	return bits.Get(&reg0, ECSReg0LDur, ECSReg0LDurMask)
}

// DebugActivate returns the debug level register 0 value that activates the
// level with the given long duration.
func DebugActivate(ldur uint32) uint32 {
	var reg0 uint32
	bits.Set(&reg0, ECSReg0Active)
	bits.SetN(&reg0, ECSReg0LDur, ECSReg0LDurMask, ldur)
	return reg0
}

// ContextSelect returns the ECS register 1 value selecting ctx as both the
// current and the selected context.
func ContextSelect(ctx uint32) uint32 {
	var reg1 uint32
	bits.SetN(&reg1, ECSReg1CCtxt, ECSReg1CCtxtMask, ctx)
	bits.SetN(&reg1, ECSReg1SelCtxt, ECSReg1SelCtxtMask, ctx)
	return reg1
}

// SelectedContext returns the selected context field of an ECS register 1.
func SelectedContext(reg1 uint32) uint32 {
	return bits.Get(&reg1, ECSReg1SelCtxt, ECSReg1SelCtxtMask)
}

// EnableDebugInterrupts returns the debug level register 2 value with the
// interrupt flag and interrupt enable bits forced on.
func EnableDebugInterrupts(reg2 uint32) uint32 {
	bits.Set(&reg2, ECSDbgReg2IF)
	bits.Set(&reg2, ECSDbgReg2IE)
	return reg2
}
