package npesim

import (
	"fmt"

	"github.com/moffa90/go-npedl/npe"
	"github.com/moffa90/go-npedl/regbus"
)

// Features is a simulated feature control block. It implements
// regbus.FeatureControl.
type Features struct {
	Value   uint32
	Product uint32

	// Writes records every value written.
	Writes []uint32

	ReadErr  error
	WriteErr error
}

// ReadFeatures implements regbus.FeatureControl.
func (f *Features) ReadFeatures() (uint32, error) {
	if f.ReadErr != nil {
		return 0, f.ReadErr
	}
	return f.Value, nil
}

// WriteFeatures implements regbus.FeatureControl.
func (f *Features) WriteFeatures(v uint32) error {
	if f.WriteErr != nil {
		return f.WriteErr
	}
	f.Writes = append(f.Writes, v)
	f.Value = v
	return nil
}

// ProductID implements regbus.FeatureControl.
func (f *Features) ProductID() (uint32, error) {
	return f.Product, nil
}

// ProductID builds a product id for a device type and stepping.
func ProductID(d npe.DeviceType, stepping uint32) uint32 {
	return 0x69054000 | uint32(d)<<9 | stepping&0xF
}

// Mapper hands out simulated engines. It implements regbus.Mapper.
type Mapper struct {
	Engines [npe.NumEngines]*Engine
	Mapped  [npe.NumEngines]bool

	MapCalls   int
	UnmapCalls int
	MapErr     error
}

// NewMapper returns a Mapper with a stopped engine per default layout of d.
func NewMapper(d npe.DeviceType) *Mapper {
	m := &Mapper{}
	for i, l := range npe.DefaultLayouts(d) {
		m.Engines[i] = New(l)
	}
	return m
}

// Map implements regbus.Mapper.
func (m *Mapper) Map(id npe.ID, l npe.Layout) (regbus.Bus, error) {
	m.MapCalls++
	if m.MapErr != nil {
		return nil, m.MapErr
	}
	if !id.Valid() {
		return nil, fmt.Errorf("map: invalid engine %s", id)
	}
	if m.Engines[id] == nil {
		m.Engines[id] = New(l)
	}
	m.Mapped[id] = true
	return m.Engines[id], nil
}

// Unmap implements regbus.Mapper.
func (m *Mapper) Unmap(id npe.ID) error {
	m.UnmapCalls++
	if !id.Valid() || !m.Mapped[id] {
		return fmt.Errorf("unmap: %s is not mapped", id)
	}
	m.Mapped[id] = false
	return nil
}
