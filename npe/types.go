package npe

import "fmt"

// ID identifies one of the network processing engines.
type ID uint8

const (
	NPEA ID = iota
	NPEB
	NPEC
)

// NumEngines is the number of engines on every supported device.
const NumEngines = 3

// Valid reports whether id names an existing engine.
func (id ID) Valid() bool {
	return id < NumEngines
}

func (id ID) String() string {
	switch id {
	case NPEA:
		return "NPE-A"
	case NPEB:
		return "NPE-B"
	case NPEC:
		return "NPE-C"
	default:
		return fmt.Sprintf("NPE(%d)", uint8(id))
	}
}

// ResetBit returns the feature control bit that fuses out (and resets) the
// engine and its coprocessor.
func (id ID) ResetBit() uint32 {
	return FeatureResetBase << uint(id)
}

// DeviceType is the SoC family as encoded in the product id and in the
// device field of a packed image id.
type DeviceType uint8

const (
	IXP42X DeviceType = iota
	IXP46X
	IXP43X
	numDeviceTypes
)

func (d DeviceType) String() string {
	switch d {
	case IXP42X:
		return "IXP42X"
	case IXP46X:
		return "IXP46X"
	case IXP43X:
		return "IXP43X"
	default:
		return fmt.Sprintf("device(%d)", uint8(d))
	}
}

// Valid reports whether d is a known device type.
func (d DeviceType) Valid() bool {
	return d < numDeviceTypes
}

// Product id fields.
const (
	productSteppingMask   = 0xF
	productDeviceShift    = 9
	productDeviceMask     = 0x7
	SteppingA0            = 0
	defaultWindowSize     = 0x1000
	featureControlAddress = 0xC4000028
)

// SteppingOf returns the silicon stepping encoded in a product id.
func SteppingOf(productID uint32) uint32 {
	return productID & productSteppingMask
}

// DeviceTypeOf returns the device family encoded in a product id.
func DeviceTypeOf(productID uint32) DeviceType {
	return DeviceType((productID >> productDeviceShift) & productDeviceMask)
}

// FeatureControlAddress is the physical address of the feature control
// register shared by all engines.
const FeatureControlAddress = featureControlAddress

// MemoryKind selects the instruction or the data memory of an engine.
type MemoryKind uint8

const (
	Instruction MemoryKind = iota
	Data
)

func (k MemoryKind) String() string {
	if k == Instruction {
		return "instruction"
	}
	return "data"
}

// ReadCmd returns the execution control command reading one word of k.
func (k MemoryKind) ReadCmd() uint32 {
	if k == Instruction {
		return CmdReadInsMem
	}
	return CmdReadDataMem
}

// WriteCmd returns the execution control command writing one word of k.
func (k MemoryKind) WriteCmd() uint32 {
	if k == Instruction {
		return CmdWriteInsMem
	}
	return CmdWriteDataMem
}

// Layout describes where an engine's register window lives and how large its
// memories are.
type Layout struct {
	// Base is the physical address of the register window
	Base uint64

	// WindowSize is the size of the register window in bytes
	WindowSize uint64

	// InsWords is the instruction memory capacity in words
	InsWords uint32

	// DataWords is the data memory capacity in words
	DataWords uint32
}

// Capacity returns the capacity in words of the memory selected by k.
func (l Layout) Capacity(k MemoryKind) uint32 {
	if k == Instruction {
		return l.InsWords
	}
	return l.DataWords
}

var engineBases = [NumEngines]uint64{0xC8006000, 0xC8007000, 0xC8008000}

// DefaultLayouts returns the stock register windows and memory sizes of d.
func DefaultLayouts(d DeviceType) [NumEngines]Layout {
	var out [NumEngines]Layout
	for i := range out {
		out[i] = Layout{
			Base:       engineBases[i],
			WindowSize: defaultWindowSize,
			InsWords:   4096,
			DataWords:  4096,
		}
	}
	if d == IXP42X {
		out[NPEA].DataWords = 2048
		out[NPEB].InsWords = 2048
		out[NPEB].DataWords = 2048
		out[NPEC].InsWords = 2048
		out[NPEC].DataWords = 2048
	}
	return out
}
