package npe

import "fmt"

// Engine micro-instructions executed through the debug level.
const (
	// InstrWrRegByte writes an immediate byte to a logical register
	InstrWrRegByte = 0x00004000

	// InstrWrRegShort writes an immediate short to a logical register
	InstrWrRegShort = 0x0000C000

	// InstrRdRegByte moves a logical byte register onto itself, latching the
	// containing word into RegEXDATA
	InstrRdRegByte = 0x00014000

	// InstrRdRegShort is the short variant of InstrRdRegByte
	InstrRdRegShort = 0x0001C000

	// InstrRdRegWord is the word variant of InstrRdRegByte
	InstrRdRegWord = 0x0003C000

	// InstrRdFIFO pops one word of the engine input FIFO
	InstrRdFIFO = 0x0F888220

	// InstrResetMbox resets the mailbox from the engine side
	InstrResetMbox = 0x0FAC8210

	// InstrOpcodeMask selects the register move opcode bits
	InstrOpcodeMask = 0x0003C000
)

// Operand field layout of the register move instructions.
const (
	InstrSrcShift    = 4
	InstrSrcMask     = 0x1F
	InstrDestShift   = 9
	InstrDestMask    = 0x1F
	InstrCoprocShift = 18
	InstrCoprocMask  = 0x7FF

	// immediate values are split: the low bits go in the source operand
	// and the remaining bits in the coprocessor operand
	immedLowBits = 5
)

// RegSize is the width of a logical register access in bits.
type RegSize uint8

const (
	Byte  RegSize = 8
	Short RegSize = 16
	Word  RegSize = 32
)

// Mask returns the value mask of the size.
func (s RegSize) Mask() uint32 {
	if s >= Word {
		return 0xFFFFFFFF
	}
	return 1<<uint(s) - 1
}

// Valid reports whether s is one of Byte, Short or Word.
func (s RegSize) Valid() bool {
	return s == Byte || s == Short || s == Word
}

func (s RegSize) String() string {
	switch s {
	case Byte:
		return "byte"
	case Short:
		return "short"
	case Word:
		return "word"
	default:
		return fmt.Sprintf("size(%d)", uint8(s))
	}
}

// ReadInstr builds the instruction that latches the logical register at addr
// into RegEXDATA. The address goes into both operand fields.
func ReadInstr(addr uint32, size RegSize) uint32 {
	var op uint32
	switch size {
	case Byte:
		op = InstrRdRegByte
	case Short:
		op = InstrRdRegShort
	default:
		op = InstrRdRegWord
	}
	addr &= InstrDestMask
	return op | addr<<InstrSrcShift | addr<<InstrDestShift
}

// WriteInstr builds the immediate write of value to the logical register at
// addr. Only Byte and Short are encodable; a Word write is two Short writes.
func WriteInstr(addr, value uint32, size RegSize) (uint32, error) {
	var op uint32
	switch size {
	case Byte:
		op = InstrWrRegByte
	case Short:
		op = InstrWrRegShort
	default:
		return 0, fmt.Errorf("no immediate write of size %s", size)
	}
	value &= size.Mask()
	instr := op |
		(addr&InstrDestMask)<<InstrDestShift |
		(value&InstrSrcMask)<<InstrSrcShift |
		((value>>immedLowBits)&InstrCoprocMask)<<InstrCoprocShift
	return instr, nil
}

// Operands splits a register move instruction into its operand fields.
func Operands(instr uint32) (src, dest, coproc uint32) {
	src = (instr >> InstrSrcShift) & InstrSrcMask
	dest = (instr >> InstrDestShift) & InstrDestMask
	coproc = (instr >> InstrCoprocShift) & InstrCoprocMask
	return src, dest, coproc
}

// Immediate reassembles the immediate value of a write instruction.
func Immediate(instr uint32) uint32 {
	src, _, coproc := Operands(instr)
	return coproc<<immedLowBits | src
}

// ExtractRead returns the register value at addr from the word latched in
// RegEXDATA. Logical registers are big-endian within the latched word.
func ExtractRead(word, addr uint32, size RegSize) uint32 {
	shift := 32 - uint32(size) - (addr%4)*8
	return (word >> shift) & size.Mask()
}
