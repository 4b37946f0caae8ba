package imagelib

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/moffa90/go-npedl/npe"
)

// Format is the layout of an image library.
type Format int

const (
	// FormatUnknown is a library whose first word is neither a signature
	// nor an image marker
	FormatUnknown Format = iota

	// FormatLegacy is a signature followed by a (size, offset, id) header table
	FormatLegacy

	// FormatStream is a sequence of (marker, id, size, body) records
	FormatStream
)

func (f Format) String() string {
	switch f {
	case FormatLegacy:
		return "legacy"
	case FormatStream:
		return "stream"
	default:
		return "unknown"
	}
}

const (
	bytesPerWord      = 4
	headerEntryWords  = 3
	streamHeaderWords = 3
)

// Library is a read-only view of an image library.
type Library struct {
	words  []uint32
	format Format
}

// FromWords wraps an in-memory library without copying it.
func FromWords(words []uint32) *Library {
	lib := &Library{words: words}
	if len(words) > 0 {
		switch words[0] {
		case npe.LibrarySignature:
			lib.format = FormatLegacy
		case npe.ImageMarker:
			lib.format = FormatStream
		}
	}
	return lib
}

// Parse reads an image library from the file at path.
//
// Example:
//
//	lib, err := imagelib.Parse("/lib/firmware/NPE-B")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s library, %d words\n", lib.Format(), lib.Len())
func Parse(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader reads an image library from r.
func ParseReader(r io.Reader) (*Library, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read library: %w", err)
	}
	return FromBytes(b)
}

// FromBytes decodes a library blob. The byte order is taken from the first
// word, which must be a signature or an image marker in either order.
func FromBytes(b []byte) (*Library, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("empty library")
	}
	if len(b)%bytesPerWord != 0 {
		return nil, fmt.Errorf("library size %d is not a multiple of %d", len(b), bytesPerWord)
	}

	order, err := detectOrder(b)
	if err != nil {
		return nil, err
	}

	words := make([]uint32, len(b)/bytesPerWord)
	for i := range words {
		words[i] = order.Uint32(b[i*bytesPerWord:])
	}
	return FromWords(words), nil
}

func detectOrder(b []byte) (binary.ByteOrder, error) {
	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		switch order.Uint32(b) {
		case npe.LibrarySignature, npe.ImageMarker:
			return order, nil
		}
	}
	return nil, &SignatureError{Found: binary.BigEndian.Uint32(b)}
}

// Format returns the detected layout.
func (l *Library) Format() Format {
	return l.format
}

// Len returns the library size in words.
func (l *Library) Len() int {
	return len(l.words)
}

// Words returns the library contents.
func (l *Library) Words() []uint32 {
	return l.words
}

// entry is one image found by walking the library.
type entry struct {
	packed uint32
	body   []uint32
}

// walk calls fn for every image in order until fn returns false. A malformed
// library stops the walk with an error.
func (l *Library) walk(fn func(entry) bool) error {
	switch l.format {
	case FormatLegacy:
		return l.walkLegacy(fn)
	case FormatStream:
		return l.walkStream(fn)
	default:
		var first uint32
		if len(l.words) > 0 {
			first = l.words[0]
		}
		return &SignatureError{Found: first}
	}
}

func (l *Library) walkLegacy(fn func(entry) bool) error {
	w := l.words
	for i := 1; ; i += headerEntryWords {
		if i >= len(w) {
			return &LibraryError{Offset: i, Reason: "header table has no end marker"}
		}
		if w[i] == npe.LibraryHeaderEnd {
			return nil
		}
		if i+headerEntryWords > len(w) {
			return &LibraryError{Offset: i, Reason: "truncated header entry"}
		}
		size, offset, packed := uint64(w[i]), uint64(w[i+1]), w[i+2]
		if offset+size > uint64(len(w)) {
			return &LibraryError{Offset: i, Reason: fmt.Sprintf("image of %d words at %d overruns library", size, offset)}
		}
		if !fn(entry{packed: packed, body: w[offset : offset+size]}) {
			return nil
		}
	}
}

func (l *Library) walkStream(fn func(entry) bool) error {
	w := l.words
	for i := 0; ; {
		if i+1 >= len(w) {
			return &LibraryError{Offset: i, Reason: "stream has no end marker"}
		}
		if w[i] != npe.ImageMarker {
			return &LibraryError{Offset: i, Reason: fmt.Sprintf("expected image marker, found 0x%08X", w[i])}
		}
		packed := w[i+1]
		if packed == npe.ImageMarker {
			return nil
		}
		if i+streamHeaderWords > len(w) {
			return &LibraryError{Offset: i, Reason: "truncated image header"}
		}
		size := uint64(w[i+2])
		start := uint64(i + streamHeaderWords)
		if start+size > uint64(len(w)) {
			return &LibraryError{Offset: i, Reason: fmt.Sprintf("image of %d words overruns library", size)}
		}
		if !fn(entry{packed: packed, body: w[start : start+size]}) {
			return nil
		}
		i = int(start + size)
	}
}
