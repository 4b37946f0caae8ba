package imagelib

import (
	"errors"
	"fmt"
	"io"

	"github.com/moffa90/go-npedl/npe"
)

// ErrNoLibrary is returned when no library was given and no default is set.
var ErrNoLibrary = &npe.Error{Op: "image library", Code: npe.CodeParam, Err: errors.New("no library loaded")}

// Stats counts image library failures.
type Stats struct {
	InvalidSignature uint64
	ListOverflow     uint64
	NotFound         uint64
}

// Manager locates images in a default library and keeps failure statistics.
// The library is only read, never modified.
type Manager struct {
	lib   *Library
	stats Stats
}

// NewManager returns a Manager whose default library is lib, which may be nil.
func NewManager(lib *Library) *Manager {
	return &Manager{lib: lib}
}

// Override replaces the default library.
func (m *Manager) Override(lib *Library) {
	m.lib = lib
}

// Library returns the default library.
func (m *Manager) Library() *Library {
	return m.lib
}

func (m *Manager) pick(lib *Library) (*Library, error) {
	if lib == nil {
		lib = m.lib
	}
	if lib == nil {
		return nil, ErrNoLibrary
	}
	if lib.format == FormatUnknown {
		m.stats.InvalidSignature++
		return nil, lib.walk(nil)
	}
	return lib, nil
}

// SignatureCheck reports whether lib (or the default library when lib is nil)
// starts with a recognized signature.
func (m *Manager) SignatureCheck(lib *Library) bool {
	_, err := m.pick(lib)
	return err == nil
}

// ListExtract copies the ids of the default library's images into out, in
// library order, and returns the number of images in the library. If out is
// too small it is filled and a ListOverflowError is returned along with the
// true count. A nil out only counts.
func (m *Manager) ListExtract(out []ImageID) (int, error) {
	lib, err := m.pick(nil)
	if err != nil {
		return 0, err
	}

	count := 0
	err = lib.walk(func(e entry) bool {
		if count < len(out) {
			out[count] = Unpack(e.packed)
		}
		count++
		return true
	})
	if err != nil {
		return count, err
	}

	if out != nil && count > len(out) {
		m.stats.ListOverflow++
		return count, &ListOverflowError{Count: count, Capacity: len(out)}
	}
	return count, nil
}

// Locate returns the first image of the default library matching id on
// engine, functionality and release.
func (m *Manager) Locate(id ImageID) (Image, error) {
	lib, err := m.pick(nil)
	if err != nil {
		return Image{}, err
	}

	var found *Image
	err = lib.walk(func(e entry) bool {
		if got := Unpack(e.packed); got.Matches(id) {
			found = &Image{ID: got, Packed: e.packed, Body: e.body}
			return false
		}
		return true
	})
	if err != nil {
		return Image{}, err
	}
	if found == nil {
		m.stats.NotFound++
		return Image{}, &NotFoundError{ID: id}
	}
	return *found, nil
}

// LatestExtract sets the release of id to the highest release in the default
// library with the same engine and functionality. The major number decides;
// the minor number only breaks ties between equal majors.
func (m *Manager) LatestExtract(id *ImageID) error {
	if id == nil {
		return &npe.Error{Op: "latest image", Code: npe.CodeParam, Err: errors.New("nil image id")}
	}
	lib, err := m.pick(nil)
	if err != nil {
		return err
	}

	var best *ImageID
	err = lib.walk(func(e entry) bool {
		got := Unpack(e.packed)
		if got.sameFunction(*id) && (best == nil || best.newer(got)) {
			best = &got
		}
		return true
	})
	if err != nil {
		return err
	}
	if best == nil {
		m.stats.NotFound++
		return &NotFoundError{ID: *id}
	}
	id.Major, id.Minor = best.Major, best.Minor
	return nil
}

// Find returns the image whose stored id word equals packed. lib may be nil to
// search the default library. A stream-format library is scanned record by
// record and the scan ends at the closing marker pair.
func (m *Manager) Find(lib *Library, packed uint32) (Image, error) {
	lib, err := m.pick(lib)
	if err != nil {
		return Image{}, err
	}

	var found *Image
	err = lib.walk(func(e entry) bool {
		if e.packed == packed {
			found = &Image{ID: Unpack(e.packed), Packed: e.packed, Body: e.body}
			return false
		}
		return true
	})
	if err != nil {
		return Image{}, err
	}
	if found == nil {
		m.stats.NotFound++
		return Image{}, &NotFoundError{ID: Unpack(packed)}
	}
	return *found, nil
}

// Stats returns a snapshot of the counters.
func (m *Manager) Stats() Stats {
	return m.stats
}

// StatsReset zeroes the counters.
func (m *Manager) StatsReset() {
	m.stats = Stats{}
}

// StatsShow writes the counters to w.
func (m *Manager) StatsShow(w io.Writer) {
	fmt.Fprintf(w, "Image library statistics:\n")
	fmt.Fprintf(w, "\tinvalid signatures: %d\n", m.stats.InvalidSignature)
	fmt.Fprintf(w, "\tlist overflows:     %d\n", m.stats.ListOverflow)
	fmt.Fprintf(w, "\timages not found:   %d\n", m.stats.NotFound)
}
