// Package npe defines the register map, command set and data formats of the
// IXP4xx network processing engines (NPEs).
//
// Nothing in this package touches hardware. It provides the constants and
// pure helpers shared by the loader, the image library and the simulator.
//
// # Register Window
//
// Each engine exposes a small window of 32-bit registers. Everything else
// (instruction and data memory, the execution context stack, the register
// file and the context store) is reached indirectly:
//
//	RegEXAD   address of the indirect access
//	RegEXDATA data of the indirect access
//	RegEXCTL  command; also carries the run/stop status bits
//
// # Debug Instructions
//
// Logical registers can only be accessed by executing engine instructions at
// the debug level of the execution context stack. ReadInstr and WriteInstr
// build those instructions:
//
//	instr, err := npe.WriteInstr(0x1C, 0x0100, npe.Short)
//
// # Download Maps
//
// An image body starts with a download map of (type, offset) entries:
//
//	entries, err := npe.ParseDownloadMap(body)
//	for _, e := range entries {
//	    switch e.Type {
//	    case npe.BlockInstruction, npe.BlockData:
//	        blk, err := npe.ParseCodeBlock(body, e.Offset)
//	        // ...
//	    }
//	}
//
// # Errors
//
// Failures are classified with a Code. Use errors.Is with the sentinels:
//
//	if errors.Is(err, npe.ErrCriticalMicrocode) {
//	    // the image is malformed, the engine is still under control
//	}
package npe
