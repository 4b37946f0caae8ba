//go:build linux

package regbus

import (
	"fmt"

	"github.com/u-root/u-root/pkg/memio"
)

// FeatureRegister accesses the feature control register by physical address.
//
// The product id lives in a coprocessor register that user space cannot
// read, so it is supplied by the board description.
type FeatureRegister struct {
	Addr    uint64
	Product uint32
}

// ReadFeatures reads the feature control register.
func (f *FeatureRegister) ReadFeatures() (uint32, error) {
	var v memio.Uint32
	if err := memio.Read(int64(f.Addr), &v); err != nil {
		return 0, fmt.Errorf("read feature control at 0x%08X: %w", f.Addr, err)
	}
	return uint32(v), nil
}

// WriteFeatures writes the feature control register.
func (f *FeatureRegister) WriteFeatures(v uint32) error {
	val := memio.Uint32(v)
	if err := memio.Write(int64(f.Addr), &val); err != nil {
		return fmt.Errorf("write feature control at 0x%08X: %w", f.Addr, err)
	}
	return nil
}

// ProductID returns the configured product id.
func (f *FeatureRegister) ProductID() (uint32, error) {
	return f.Product, nil
}
