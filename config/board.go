// Package config describes the board an engine downloader runs on: the
// device family, where the engine register windows and the feature control
// register live, and where to find the image library.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/moffa90/go-npedl/npe"
)

// Stock values of a first-generation board.
const (
	DefaultProductID = 0x690541F1
	DefaultLibrary   = "/lib/firmware/NPE-Library"
)

// Board is a board description.
type Board struct {
	// Device names the device family. Empty means read it from ProductID.
	Device string `yaml:"Device"`

	// ProductID is the processor product id word.
	ProductID uint32 `yaml:"ProductID"`

	// FeatureAddr is the physical address of the feature control register.
	FeatureAddr uint64 `yaml:"FeatureAddr"`

	// DevMem is the physical memory device. Empty selects /dev/mem.
	DevMem string `yaml:"DevMem"`

	// Library is the path of the default image library.
	Library string `yaml:"Library"`

	// Engines overrides the stock layout of single engines.
	Engines []Engine `yaml:"Engines"`

	// Polls overrides the poll bounds. Zero keeps the default.
	Polls Polls `yaml:"Polls"`

	// MetricsFile, when set, receives the statistics in the Prometheus text
	// format after every command.
	MetricsFile string `yaml:"MetricsFile"`
}

// Engine overrides one engine layout. Zero fields keep the stock value.
type Engine struct {
	Name       string `yaml:"Name"`
	Base       uint64 `yaml:"Base"`
	WindowSize uint64 `yaml:"WindowSize"`
	InsWords   uint32 `yaml:"InsWords"`
	DataWords  uint32 `yaml:"DataWords"`
}

// Polls holds the busy-wait bounds.
type Polls struct {
	Exec   int `yaml:"Exec"`
	Status int `yaml:"Status"`
	FIFO   int `yaml:"FIFO"`
}

// Default returns the description of a stock IXP42x board.
func Default() *Board {
	return &Board{
		ProductID:   DefaultProductID,
		FeatureAddr: npe.FeatureControlAddress,
		Library:     DefaultLibrary,
	}
}

// Load reads and validates the board file at path. Fields missing from the
// file keep their Default value.
func Load(path string) (*Board, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read board file: %w", err)
	}
	b, err := Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Parse decodes and validates a board description. Unknown fields are
// rejected.
func Parse(bs []byte) (*Board, error) {
	b := Default()
	dec := yaml.NewDecoder(bytes.NewReader(bs))
	dec.KnownFields(true)
	if err := dec.Decode(b); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks the description for consistency.
func (b *Board) Validate() error {
	if _, err := b.DeviceType(); err != nil {
		return err
	}
	if b.FeatureAddr == 0 {
		return errors.New("missing field: FeatureAddr")
	}
	if b.FeatureAddr%4 != 0 {
		return fmt.Errorf("FeatureAddr 0x%X is not word aligned", b.FeatureAddr)
	}

	seen := make(map[npe.ID]bool)
	for _, e := range b.Engines {
		id, err := ParseEngine(e.Name)
		if err != nil {
			return err
		}
		if seen[id] {
			return fmt.Errorf("engine %s listed twice", id)
		}
		seen[id] = true
		if e.Base%4 != 0 {
			return fmt.Errorf("%s: Base 0x%X is not word aligned", id, e.Base)
		}
		if e.WindowSize != 0 && e.WindowSize < npe.RegFIFO+4 {
			return fmt.Errorf("%s: WindowSize 0x%X does not cover the register set", id, e.WindowSize)
		}
	}

	if b.Polls.Exec < 0 || b.Polls.Status < 0 || b.Polls.FIFO < 0 {
		return errors.New("poll bounds must not be negative")
	}
	return nil
}

// DeviceType returns the configured device, or the device encoded in
// ProductID when none is named.
func (b *Board) DeviceType() (npe.DeviceType, error) {
	if b.Device == "" {
		d := npe.DeviceTypeOf(b.ProductID)
		if !d.Valid() {
			return 0, fmt.Errorf("product id 0x%08X names no supported device", b.ProductID)
		}
		return d, nil
	}
	for d := npe.IXP42X; d <= npe.IXP43X; d++ {
		if d.String() == b.Device {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown device %q", b.Device)
}

// Layouts returns the layout of every engine that has an override, merged
// over the stock layout of the board's device.
func (b *Board) Layouts() (map[npe.ID]npe.Layout, error) {
	d, err := b.DeviceType()
	if err != nil {
		return nil, err
	}
	stock := npe.DefaultLayouts(d)

	out := make(map[npe.ID]npe.Layout, len(b.Engines))
	for _, e := range b.Engines {
		id, err := ParseEngine(e.Name)
		if err != nil {
			return nil, err
		}
		l := stock[id]
		if e.Base != 0 {
			l.Base = e.Base
		}
		if e.WindowSize != 0 {
			l.WindowSize = e.WindowSize
		}
		if e.InsWords != 0 {
			l.InsWords = e.InsWords
		}
		if e.DataWords != 0 {
			l.DataWords = e.DataWords
		}
		out[id] = l
	}
	return out, nil
}

// ParseEngine returns the engine named s, as printed by npe.ID.String.
func ParseEngine(s string) (npe.ID, error) {
	for id := npe.NPEA; id < npe.NumEngines; id++ {
		if id.String() == s {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown engine %q", s)
}
