package npesim

import (
	"encoding/binary"

	"github.com/moffa90/go-npedl/npe"
)

// Block is one download map entry of a synthetic image. Code blocks use Addr
// and Words; state-info blocks use State. Any other Type is emitted with the
// code block layout.
type Block struct {
	Type  npe.BlockType
	Addr  uint32
	Words []uint32
	State []npe.StateEntry
}

// BuildImage returns an image body: the download map followed by the blocks.
func BuildImage(blocks ...Block) []uint32 {
	mapWords := len(blocks)*2 + 1
	body := make([]uint32, mapWords)
	for i, b := range blocks {
		body[2*i] = uint32(b.Type)
		body[2*i+1] = uint32(len(body))
		if b.Type == npe.BlockState {
			body = append(body, uint32(len(b.State)*npe.StateEntryWords))
			for _, s := range b.State {
				body = append(body, s.AddrInfo, s.Value)
			}
			continue
		}
		body = append(body, b.Addr, uint32(len(b.Words)))
		body = append(body, b.Words...)
	}
	body[mapWords-1] = npe.EndOfDownloadMap
	return body
}

// Image is a packed id and an image body.
type Image struct {
	ID   uint32
	Body []uint32
}

// LegacyLibrary lays images out behind a signature and header table. Offsets
// are in words from the start of the library.
func LegacyLibrary(images ...Image) []uint32 {
	header := 1 + len(images)*3 + 1
	lib := make([]uint32, header)
	lib[0] = npe.LibrarySignature
	for i, img := range images {
		lib[1+3*i] = uint32(len(img.Body))
		lib[2+3*i] = uint32(len(lib))
		lib[3+3*i] = img.ID
		lib = append(lib, img.Body...)
	}
	lib[header-1] = npe.LibraryHeaderEnd
	return lib
}

// StreamLibrary lays images out as (marker, id, size, body) records closed
// by two marker words.
func StreamLibrary(images ...Image) []uint32 {
	var lib []uint32
	for _, img := range images {
		lib = append(lib, npe.ImageMarker, img.ID, uint32(len(img.Body)))
		lib = append(lib, img.Body...)
	}
	return append(lib, npe.ImageMarker, npe.ImageMarker)
}

// Bytes serializes words in the given byte order.
func Bytes(words []uint32, order binary.ByteOrder) []byte {
	b := make([]byte, 4*len(words))
	for i, w := range words {
		order.PutUint32(b[4*i:], w)
	}
	return b
}
