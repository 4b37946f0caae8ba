package imagelib

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/moffa90/go-npedl/internal/npesim"
	"github.com/moffa90/go-npedl/npe"
)

func packed(engine npe.ID, fn, major, minor uint8) uint32 {
	return ImageID{Engine: engine, Functionality: fn, Major: major, Minor: minor}.Pack()
}

func testImages() []npesim.Image {
	return []npesim.Image{
		{ID: packed(npe.NPEA, 0x01, 1, 0), Body: []uint32{npe.EndOfDownloadMap, 0xA1}},
		{ID: packed(npe.NPEA, 0x01, 1, 5), Body: []uint32{npe.EndOfDownloadMap, 0xA2, 0xA3}},
		{ID: packed(npe.NPEA, 0x01, 2, 0), Body: []uint32{npe.EndOfDownloadMap}},
		{ID: packed(npe.NPEB, 0x02, 3, 1), Body: []uint32{npe.EndOfDownloadMap, 0xB1, 0xB2, 0xB3}},
	}
}

func bothFormats() map[string]*Library {
	return map[string]*Library{
		"legacy": FromWords(npesim.LegacyLibrary(testImages()...)),
		"stream": FromWords(npesim.StreamLibrary(testImages()...)),
	}
}

func TestLocate(t *testing.T) {
	for name, lib := range bothFormats() {
		t.Run(name, func(t *testing.T) {
			m := NewManager(lib)

			img, err := m.Locate(Unpack(packed(npe.NPEA, 0x01, 1, 5)))
			if err != nil {
				t.Fatalf("Locate: %v", err)
			}
			if diff := cmp.Diff([]uint32{npe.EndOfDownloadMap, 0xA2, 0xA3}, img.Body); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
			if img.Size() != 3 {
				t.Errorf("Size() = %d, want 3", img.Size())
			}

			// the device field does not take part in matching
			other := Unpack(packed(npe.NPEB, 0x02, 3, 1))
			other.Device = npe.IXP46X
			if _, err := m.Locate(other); err != nil {
				t.Errorf("Locate with other device: %v", err)
			}

			_, err = m.Locate(Unpack(packed(npe.NPEC, 0x01, 1, 0)))
			var nf *NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("error = %v, want NotFoundError", err)
			}
			if !errors.Is(err, npe.ErrFail) {
				t.Errorf("NotFoundError should classify as failure")
			}
			if m.Stats().NotFound != 1 {
				t.Errorf("NotFound = %d, want 1", m.Stats().NotFound)
			}
		})
	}
}

func TestLatestExtract(t *testing.T) {
	for name, lib := range bothFormats() {
		t.Run(name, func(t *testing.T) {
			m := NewManager(lib)

			id := Unpack(packed(npe.NPEA, 0x01, 1, 0))
			if err := m.LatestExtract(&id); err != nil {
				t.Fatalf("LatestExtract: %v", err)
			}
			if id.Major != 2 || id.Minor != 0 {
				t.Errorf("latest = v%d.%d, want v2.0", id.Major, id.Minor)
			}

			missing := Unpack(packed(npe.NPEA, 0x09, 0, 0))
			if err := m.LatestExtract(&missing); err == nil {
				t.Error("expected not found")
			}
			if m.LatestExtract(nil) == nil {
				t.Error("nil id should fail")
			}
		})
	}
}

func TestLatestExtractMinorTieBreak(t *testing.T) {
	lib := FromWords(npesim.LegacyLibrary(
		npesim.Image{ID: packed(npe.NPEC, 0x04, 3, 2)},
		npesim.Image{ID: packed(npe.NPEC, 0x04, 3, 7)},
		npesim.Image{ID: packed(npe.NPEC, 0x04, 2, 9)},
	))
	m := NewManager(lib)

	id := ImageID{Engine: npe.NPEC, Functionality: 0x04}
	if err := m.LatestExtract(&id); err != nil {
		t.Fatalf("LatestExtract: %v", err)
	}
	if id.Major != 3 || id.Minor != 7 {
		t.Errorf("latest = v%d.%d, want v3.7", id.Major, id.Minor)
	}
}

func TestListExtract(t *testing.T) {
	for name, lib := range bothFormats() {
		t.Run(name, func(t *testing.T) {
			m := NewManager(lib)

			n, err := m.ListExtract(nil)
			if err != nil || n != 4 {
				t.Fatalf("ListExtract(nil) = %d, %v; want 4, nil", n, err)
			}

			out := make([]ImageID, 8)
			n, err = m.ListExtract(out)
			if err != nil {
				t.Fatalf("ListExtract: %v", err)
			}
			want := make([]ImageID, 0, 4)
			for _, img := range testImages() {
				want = append(want, Unpack(img.ID))
			}
			if diff := cmp.Diff(want, out[:n]); diff != "" {
				t.Errorf("list mismatch (-want +got):\n%s", diff)
			}

			short := make([]ImageID, 2)
			n, err = m.ListExtract(short)
			var ov *ListOverflowError
			if !errors.As(err, &ov) {
				t.Fatalf("error = %v, want ListOverflowError", err)
			}
			if n != 4 || ov.Count != 4 || ov.Capacity != 2 {
				t.Errorf("overflow = %d (%+v), want true count 4", n, ov)
			}
			if short[1] != want[1] {
				t.Errorf("partial list = %v, want prefix of %v", short, want)
			}
			if m.Stats().ListOverflow != 1 {
				t.Errorf("ListOverflow = %d, want 1", m.Stats().ListOverflow)
			}
		})
	}
}

func TestFind(t *testing.T) {
	lib := FromWords(npesim.StreamLibrary(testImages()...))
	m := NewManager(nil)

	img, err := m.Find(lib, packed(npe.NPEB, 0x02, 3, 1))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if diff := cmp.Diff([]uint32{npe.EndOfDownloadMap, 0xB1, 0xB2, 0xB3}, img.Body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}

	// scanning runs into the closing marker pair
	if _, err := m.Find(lib, packed(npe.NPEC, 0x02, 3, 1)); err == nil {
		t.Error("expected not found")
	}

	// the id is compared as a whole word, device included
	withDevice := ImageID{Device: npe.IXP46X, Engine: npe.NPEB, Functionality: 0x02, Major: 3, Minor: 1}
	if _, err := m.Find(lib, withDevice.Pack()); err == nil {
		t.Error("expected not found for other device")
	}

	if _, err := m.Find(nil, 0); !errors.Is(err, ErrNoLibrary) {
		t.Errorf("Find without library = %v, want ErrNoLibrary", err)
	}

	m.Override(lib)
	if _, err := m.Find(nil, packed(npe.NPEA, 0x01, 2, 0)); err != nil {
		t.Errorf("Find in default library: %v", err)
	}
}

func TestSignatureCheck(t *testing.T) {
	m := NewManager(FromWords([]uint32{0x12345678, 0, 0}))
	if m.SignatureCheck(nil) {
		t.Error("bad signature accepted")
	}
	if _, err := m.Locate(ImageID{}); err == nil {
		t.Error("Locate on bad library should fail")
	}
	var se *SignatureError
	if _, err := m.ListExtract(nil); !errors.As(err, &se) || se.Found != 0x12345678 {
		t.Errorf("ListExtract error = %v, want SignatureError", err)
	}
	if got := m.Stats().InvalidSignature; got != 3 {
		t.Errorf("InvalidSignature = %d, want 3", got)
	}

	m.StatsReset()
	if m.Stats() != (Stats{}) {
		t.Errorf("stats after reset = %+v", m.Stats())
	}

	var buf bytes.Buffer
	m.StatsShow(&buf)
	if !strings.Contains(buf.String(), "invalid signatures: 0") {
		t.Errorf("StatsShow output = %q", buf.String())
	}
}

func TestCorruptLibrary(t *testing.T) {
	tests := []struct {
		name  string
		words []uint32
	}{
		{"legacy without end marker", []uint32{npe.LibrarySignature, 1, 4, 0}},
		{"legacy image overruns", []uint32{npe.LibrarySignature, 10, 5, 0, npe.LibraryHeaderEnd, 0}},
		{"stream without closing pair", []uint32{npe.ImageMarker, 1, 1, 0}},
		{"stream image overruns", []uint32{npe.ImageMarker, 1, 9, 0, npe.ImageMarker, npe.ImageMarker}},
		{"stream garbage between records", []uint32{npe.ImageMarker, 1, 0, 0xBAD, npe.ImageMarker, npe.ImageMarker}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(FromWords(tt.words))
			_, err := m.ListExtract(nil)
			var le *LibraryError
			if !errors.As(err, &le) {
				t.Errorf("error = %v, want LibraryError", err)
			}
		})
	}
}

func TestFromBytes(t *testing.T) {
	words := npesim.StreamLibrary(testImages()...)

	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		t.Run(order.String(), func(t *testing.T) {
			lib, err := ParseReader(bytes.NewReader(npesim.Bytes(words, order)))
			if err != nil {
				t.Fatalf("ParseReader: %v", err)
			}
			if lib.Format() != FormatStream {
				t.Errorf("Format() = %s, want stream", lib.Format())
			}
			if diff := cmp.Diff(words, lib.Words()); diff != "" {
				t.Errorf("words mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := FromBytes(nil); err == nil {
		t.Error("empty blob accepted")
	}
	if _, err := FromBytes([]byte{0xDE, 0xAD, 0xBE}); err == nil {
		t.Error("unaligned blob accepted")
	}
	var se *SignatureError
	if _, err := FromBytes([]byte{1, 2, 3, 4}); !errors.As(err, &se) {
		t.Errorf("error = %v, want SignatureError", err)
	}
}

func TestImageIDPack(t *testing.T) {
	id := ImageID{Device: npe.IXP46X, Engine: npe.NPEC, Functionality: 0x82, Major: 2, Minor: 3}
	if got := id.Pack(); got != 0x12820203 {
		t.Errorf("Pack() = 0x%08X, want 0x12820203", got)
	}
	if Unpack(0x12820203) != id {
		t.Errorf("Unpack = %+v, want %+v", Unpack(0x12820203), id)
	}
	if !strings.Contains(id.String(), "NPE-C") {
		t.Errorf("String() = %q", id.String())
	}
}
