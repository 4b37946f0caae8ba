//go:build linux

package regbus

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/moffa90/go-npedl/npe"
)

// DefaultDevMem is the physical memory device.
const DefaultDevMem = "/dev/mem"

// DevMem maps engine register windows from a physical memory device.
type DevMem struct {
	path    string
	windows [npe.NumEngines]*Window
}

// NewDevMem returns a Mapper over the physical memory device at path. An
// empty path selects DefaultDevMem.
func NewDevMem(path string) *DevMem {
	if path == "" {
		path = DefaultDevMem
	}
	return &DevMem{path: path}
}

// Map maps the register window of engine id. Mapping an already mapped engine
// returns the existing window.
func (d *DevMem) Map(id npe.ID, l npe.Layout) (Bus, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("map: invalid engine %s", id)
	}
	if w := d.windows[id]; w != nil {
		return w, nil
	}

	fd, err := unix.Open(d.path, unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.path, err)
	}
	defer func() { _ = unix.Close(fd) }()

	page := uint64(unix.Getpagesize())
	aligned := l.Base &^ (page - 1)
	delta := l.Base - aligned

	mem, err := unix.Mmap(fd, int64(aligned), int(l.WindowSize+delta),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s window at 0x%08X: %w", id, l.Base, err)
	}

	w := &Window{mem: mem, off: uint32(delta)}
	d.windows[id] = w
	return w, nil
}

// Unmap releases the window of engine id.
func (d *DevMem) Unmap(id npe.ID) error {
	if !id.Valid() {
		return fmt.Errorf("unmap: invalid engine %s", id)
	}
	w := d.windows[id]
	if w == nil {
		return fmt.Errorf("unmap: %s is not mapped", id)
	}
	d.windows[id] = nil
	return unix.Munmap(w.mem)
}

// Window is one mapped register window.
type Window struct {
	mem []byte
	off uint32
}

func (w *Window) reg(offset uint32) *uint32 {
	return (*uint32)(unsafe.Pointer(&w.mem[w.off+offset]))
}

// Read reads the register at offset.
func (w *Window) Read(offset uint32) uint32 {
	return atomic.LoadUint32(w.reg(offset))
}

// Write writes the register at offset.
func (w *Window) Write(offset, value uint32) {
	atomic.StoreUint32(w.reg(offset), value)
}
