package npe

import "fmt"

// BlockType classifies a download map entry.
type BlockType uint32

const (
	BlockInstruction BlockType = 0
	BlockData        BlockType = 1
	BlockState       BlockType = 2
)

func (t BlockType) String() string {
	switch t {
	case BlockInstruction:
		return "instruction"
	case BlockData:
		return "data"
	case BlockState:
		return "state-info"
	default:
		return fmt.Sprintf("block type 0x%X", uint32(t))
	}
}

// BlockEntry is one (type, offset) entry of a download map. Offset is in words
// from the start of the image.
type BlockEntry struct {
	Type   BlockType
	Offset uint32
}

// CodeBlock is a contiguous run of instruction or data words.
type CodeBlock struct {
	// Addr is the word address of the first word in engine memory
	Addr uint32

	// Words is the payload, sharing storage with the image
	Words []uint32
}

// StateEntry is one context store register assignment of a state-info block.
type StateEntry struct {
	AddrInfo uint32
	Value    uint32
}

// StateInfoBlock is a list of context store register assignments.
type StateInfoBlock struct {
	Entries []StateEntry
}

const blockEntryWords = 2

// ParseDownloadMap returns the entries of the download map at the start of
// image, up to but excluding the end marker. A map that runs off the end of
// the image is a critical microcode error.
func ParseDownloadMap(image []uint32) ([]BlockEntry, error) {
	var entries []BlockEntry
	for i := 0; ; i += blockEntryWords {
		if i >= len(image) {
			return nil, Errorf(CodeCriticalMicrocode, "parse download map",
				"no end marker within %d words", len(image))
		}
		if image[i] == EndOfDownloadMap {
			return entries, nil
		}
		if i+1 >= len(image) {
			return nil, Errorf(CodeCriticalMicrocode, "parse download map",
				"truncated entry at word %d", i)
		}
		entries = append(entries, BlockEntry{Type: BlockType(image[i]), Offset: image[i+1]})
	}
}

// ParseCodeBlock decodes the instruction or data block at offset.
func ParseCodeBlock(image []uint32, offset uint32) (CodeBlock, error) {
	const header = 2
	if uint64(offset)+header > uint64(len(image)) {
		return CodeBlock{}, Errorf(CodeCriticalMicrocode, "parse code block",
			"block header at word %d beyond image of %d words", offset, len(image))
	}
	addr, size := image[offset], image[offset+1]
	start := uint64(offset) + header
	if start+uint64(size) > uint64(len(image)) {
		return CodeBlock{}, Errorf(CodeCriticalMicrocode, "parse code block",
			"%d words at word %d overrun image of %d words", size, start, len(image))
	}
	return CodeBlock{Addr: addr, Words: image[start : start+uint64(size)]}, nil
}

// ParseStateInfoBlock decodes the state-info block at offset. The size word
// counts payload words; a trailing odd word is ignored.
func ParseStateInfoBlock(image []uint32, offset uint32) (StateInfoBlock, error) {
	if uint64(offset) >= uint64(len(image)) {
		return StateInfoBlock{}, Errorf(CodeCriticalMicrocode, "parse state-info block",
			"block header at word %d beyond image of %d words", offset, len(image))
	}
	size := image[offset]
	start := uint64(offset) + 1
	if start+uint64(size) > uint64(len(image)) {
		return StateInfoBlock{}, Errorf(CodeCriticalMicrocode, "parse state-info block",
			"%d words at word %d overrun image of %d words", size, start, len(image))
	}
	n := size / StateEntryWords
	blk := StateInfoBlock{Entries: make([]StateEntry, n)}
	for i := range blk.Entries {
		w := start + uint64(i)*StateEntryWords
		blk.Entries[i] = StateEntry{AddrInfo: image[w], Value: image[w+1]}
	}
	return blk, nil
}
