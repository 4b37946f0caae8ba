// Package regbus provides access to the memory-mapped register windows of the
// network processing engines and to the shared feature control register.
//
// The loader is written against the Bus, Mapper and FeatureControl
// interfaces only. DevMem and FeatureRegister implement them on Linux through
// /dev/mem; internal/npesim implements them in memory for tests.
package regbus

import "github.com/moffa90/go-npedl/npe"

//go:generate mockgen -destination=mock_regbus/mock_regbus.go -package=mock_regbus github.com/moffa90/go-npedl/regbus Bus,FeatureControl

// Bus reads and writes 32-bit registers of one engine window. Offsets are in
// bytes from the start of the window. Register accesses cannot fail once the
// window is mapped.
type Bus interface {
	Read(offset uint32) uint32
	Write(offset, value uint32)
}

// Mapper maps and unmaps engine register windows.
type Mapper interface {
	// Map maps the register window described by l for engine id.
	Map(id npe.ID, l npe.Layout) (Bus, error)

	// Unmap releases the window of engine id.
	Unmap(id npe.ID) error
}

// FeatureControl is the device-wide feature control block.
type FeatureControl interface {
	// ReadFeatures returns the feature control register.
	ReadFeatures() (uint32, error)

	// WriteFeatures writes the feature control register.
	WriteFeatures(v uint32) error

	// ProductID returns the product id of the running silicon.
	ProductID() (uint32, error)
}

// ComponentPresent reports whether engine id is fused in on a device with the
// given feature control value. A set bit means the component is disabled.
func ComponentPresent(features uint32, id npe.ID) bool {
	return features&id.ResetBit() == 0
}
