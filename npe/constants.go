package npe

// Register window offsets, relative to an engine's base address.
const (
	// RegEXAD is the execution address register
	RegEXAD = 0x00

	// RegEXDATA is the execution data register
	RegEXDATA = 0x04

	// RegEXCTL is the execution control register (commands and run/stop status)
	RegEXCTL = 0x08

	// RegEXCT is the execution count register
	RegEXCT = 0x0C

	// RegAP0 to RegAP3 are the action point registers
	RegAP0 = 0x10
	RegAP1 = 0x14
	RegAP2 = 0x18
	RegAP3 = 0x1C

	// RegWFIFO is the watchpoint FIFO
	RegWFIFO = 0x20

	// RegWC is the watch count register, incremented once per executed step
	RegWC = 0x24

	// RegPROFCT is the profile count register
	RegPROFCT = 0x28

	// RegSTAT is the messaging status register
	RegSTAT = 0x2C

	// RegCTL is the messaging control register
	RegCTL = 0x30

	// RegMBST is the mailbox status register
	RegMBST = 0x34

	// RegFIFO is the host side of the engine FIFO
	RegFIFO = 0x38
)

// Execution control commands written to RegEXCTL.
const (
	CmdStep            = 0x01
	CmdStart           = 0x02
	CmdStop            = 0x03
	CmdClearPipe       = 0x04
	CmdClearProfileCnt = 0x0C
	CmdReadInsMem      = 0x10
	CmdWriteInsMem     = 0x11
	CmdReadDataMem     = 0x12
	CmdWriteDataMem    = 0x13
	CmdReadECS         = 0x14
	CmdWriteECS        = 0x15
)

// Status bits.
const (
	// StatusRun is set in RegEXCTL while the engine is executing
	StatusRun = 0x80000000

	// StatusStop is set in RegEXCTL while the engine is halted
	StatusStop = 0x40000000

	// StatusClear is set in RegEXCTL once the engine is cleared
	StatusClear = 0x20000000

	// WFIFOValid is set in RegWFIFO while the watchpoint FIFO holds data
	WFIFOValid = 0x80000000

	// StatOutFIFONotEmpty is set in RegSTAT while the output FIFO holds data
	StatOutFIFONotEmpty = 0x00010000

	// StatInFIFONotEmpty is set in RegSTAT while the input FIFO holds data
	StatInFIFONotEmpty = 0x00080000

	// MailboxReset is written to RegMBST to reset the mailbox from the host side
	MailboxReset = 0x0000F0F0
)

// Control register masks applied around a reset.
const (
	// CTLParityForce is OR'ed into the saved control value before masking
	CTLParityForce = 0x3F000000

	// CTLParityMask disables the parity interrupts while resetting
	CTLParityMask = 0x3F00FFFF

	// CTLRestoreMask is applied to the saved control value when restoring it
	CTLRestoreMask = 0x3F3FFFFF
)

// Execution context stack registers, reached through RegEXAD with
// CmdReadECS / CmdWriteECS.
const (
	ECSBgReg0   = 0x00
	ECSBgReg1   = 0x01
	ECSBgReg2   = 0x02
	ECSPri1Reg0 = 0x04
	ECSPri1Reg1 = 0x05
	ECSPri1Reg2 = 0x06
	ECSPri2Reg0 = 0x08
	ECSPri2Reg1 = 0x09
	ECSPri2Reg2 = 0x0A
	ECSDbgReg0  = 0x0C
	ECSDbgReg1  = 0x0D
	ECSDbgReg2  = 0x0E
	ECSInstruct = 0x11
)

// ECSReset pairs an execution context stack register with its reset value.
type ECSReset struct {
	Reg   uint32
	Value uint32
}

// ECSResetValues lists every execution context stack register in the order
// it is restored during a reset.
var ECSResetValues = []ECSReset{
	{ECSBgReg0, 0xA0000000},
	{ECSBgReg1, 0x01000000},
	{ECSBgReg2, 0x00008000},
	{ECSPri1Reg0, 0x20000080},
	{ECSPri1Reg1, 0x01000000},
	{ECSPri1Reg2, 0x00008000},
	{ECSPri2Reg0, 0x20000080},
	{ECSPri2Reg1, 0x01000000},
	{ECSPri2Reg2, 0x00008000},
	{ECSDbgReg0, 0x20000000},
	{ECSDbgReg1, 0x00000000},
	{ECSDbgReg2, 0x001E0000},
	{ECSInstruct, 0x1003C00F},
}

// Bit positions of the execution context stack fields. Use the accessors in
// fields.go rather than shifting by hand.
const (
	// ECSReg0Active is the level active bit of register 0
	ECSReg0Active = 31

	// ECSReg0NextPC is the next program counter field of register 0
	ECSReg0NextPC     = 16
	ECSReg0NextPCMask = 0x1FFF

	// ECSReg0LDur is the long duration field of register 0
	ECSReg0LDur     = 8
	ECSReg0LDurMask = 0x7

	// ECSReg1CCtxt is the current context field of register 1
	ECSReg1CCtxt     = 16
	ECSReg1CCtxtMask = 0xF

	// ECSReg1SelCtxt is the selected context field of register 1
	ECSReg1SelCtxt     = 0
	ECSReg1SelCtxtMask = 0xF

	// ECSDbgReg2IF and ECSDbgReg2IE are the debug level interrupt flag and
	// interrupt enable bits
	ECSDbgReg2IF = 20
	ECSDbgReg2IE = 19
)

// Long duration values used by debug execution.
const (
	LDurRead  = 0
	LDurWrite = 1
)

// Feature control bits.
const (
	// FeatureResetBase is the parity reset / fuse bit of NPE-A; the bit of
	// engine n is FeatureResetBase << n
	FeatureResetBase = 0x0800

	// FeatureResetShift is the bit position of FeatureResetBase
	FeatureResetShift = 11
)

// NumPhysicalRegisters is the size of the engine register file in words.
const NumPhysicalRegisters = 32

// Context store dimensions.
const (
	NumContexts         = 16
	NumContextRegisters = 4
)

// Image library and download map constants.
const (
	// LibrarySignature is the first word of a legacy image library
	LibrarySignature = 0xDEADBEEF

	// LibraryHeaderEnd terminates the legacy image header table
	LibraryHeaderEnd = 0xFFFFFFFF

	// ImageMarker introduces every image of a stream-format library; an
	// image id equal to the marker ends the library
	ImageMarker = 0xFEEDF00D

	// EndOfDownloadMap terminates an image download map
	EndOfDownloadMap = 0x0000000F

	// StateEntryWords is the size of one state-info (address, value) entry
	StateEntryWords = 2
)

// Default poll bounds.
const (
	// MaxExecPolls bounds the watch count poll after a single step
	MaxExecPolls = 10000

	// MaxStatusPolls bounds the run/stop status poll after a command
	MaxStatusPolls = 100

	// MaxFIFODrain bounds each FIFO drain during a reset
	MaxFIFODrain = 1024
)
