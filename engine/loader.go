package engine

import (
	"github.com/moffa90/go-npedl/npe"
)

// LoadBlock writes a code block into the instruction or data memory. A block
// that does not fit is rejected before anything is written; a failed word
// write aborts the block.
func (e *Engine) LoadBlock(blk npe.CodeBlock, kind npe.MemoryKind, verify bool) error {
	size := uint32(len(blk.Words))
	capacity := e.layout.Capacity(kind)
	if uint64(blk.Addr)+uint64(size) > uint64(capacity) {
		e.stats.CriticalMicrocodeErrors++
		return &BlockRangeError{Kind: kind, Addr: blk.Addr, Size: size, Capacity: capacity}
	}

	for i, w := range blk.Words {
		if err := e.WriteMemory(kind, blk.Addr+uint32(i), w, verify); err != nil {
			e.stats.CriticalEngineErrors++
			return err
		}
	}

	if kind == npe.Instruction {
		e.stats.InstructionBlocksLoaded++
	} else {
		e.stats.DataBlocksLoaded++
	}
	e.logDebug("Loaded block", "memory", kind.String(), "address", blk.Addr, "words", size)
	return nil
}

// LoadStateInfo writes the context store registers listed in blk. An entry
// naming a register that does not exist is bad microcode; a failed write is a
// critical engine error. Either aborts the block.
func (e *Engine) LoadStateInfo(blk npe.StateInfoBlock, verify bool) error {
	err := e.DebugSession(func() error {
		for _, entry := range blk.Entries {
			a := npe.DecodeContextRegAddr(entry.AddrInfo)
			if !a.Valid() {
				e.stats.CriticalMicrocodeErrors++
				return &ContextRegisterError{Context: a.Context, Reg: a.Reg}
			}
			if err := e.WriteContextRegister(a.Context, a.Reg, entry.Value, verify); err != nil {
				e.stats.CriticalEngineErrors++
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.stats.StateInfoBlocksLoaded++
	e.logDebug("Loaded state-info block", "entries", len(blk.Entries))
	return nil
}

// LoadImage walks the download map at the start of body and loads every
// block it lists, in map order. The engine must be stopped. Loading ends at
// the first failing block.
func (e *Engine) LoadImage(body []uint32, verify bool) error {
	if !e.stopped() {
		return npe.Errorf(npe.CodeFail, "load image", "%s is not stopped", e.id)
	}

	entries, err := npe.ParseDownloadMap(body)
	if err != nil {
		e.stats.CriticalMicrocodeErrors++
		return err
	}

	for _, entry := range entries {
		if err := e.loadEntry(body, entry, verify); err != nil {
			e.logError("Image load failed", "block", entry.Type.String(), "offset", entry.Offset, "error", err)
			return err
		}
	}
	return nil
}

func (e *Engine) loadEntry(body []uint32, entry npe.BlockEntry, verify bool) error {
	switch entry.Type {
	case npe.BlockInstruction, npe.BlockData:
		blk, err := npe.ParseCodeBlock(body, entry.Offset)
		if err != nil {
			e.stats.CriticalMicrocodeErrors++
			return err
		}
		kind := npe.Instruction
		if entry.Type == npe.BlockData {
			kind = npe.Data
		}
		return e.LoadBlock(blk, kind, verify)

	case npe.BlockState:
		blk, err := npe.ParseStateInfoBlock(body, entry.Offset)
		if err != nil {
			e.stats.CriticalMicrocodeErrors++
			return err
		}
		return e.LoadStateInfo(blk, verify)

	default:
		e.stats.CriticalMicrocodeErrors++
		return npe.Errorf(npe.CodeCriticalMicrocode, "load image", "unknown %s", entry.Type)
	}
}

func (e *Engine) stopped() bool {
	return e.bus.Read(npe.RegEXCTL)&npe.StatusStop != 0
}
