// npelib prints the contents of an engine image library: every image id and
// the blocks of its download map.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/moffa90/go-npedl/imagelib"
	"github.com/moffa90/go-npedl/npe"
)

var showBlocks = flag.Bool("blocks", true, "List the download map blocks of every image.")

func main() {
	flag.Parse()
	defer glog.Flush()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <library>\n", os.Args[0])
		os.Exit(2)
	}

	lib, err := imagelib.Parse(flag.Arg(0))
	if err != nil {
		glog.Exitf("Failed to parse library: %v", err)
	}
	m := imagelib.NewManager(lib)

	n, err := m.ListExtract(nil)
	if err != nil {
		glog.Exitf("Failed to list images: %v", err)
	}
	ids := make([]imagelib.ImageID, n)
	if _, err := m.ListExtract(ids); err != nil {
		glog.Exitf("Failed to list images: %v", err)
	}

	fmt.Printf("Library Information:\n")
	fmt.Printf("  Format:  %s\n", lib.Format())
	fmt.Printf("  Size:    %d words\n", lib.Len())
	fmt.Printf("  Images:  %d\n", n)
	fmt.Println()

	bad := 0
	for _, id := range ids {
		img, err := m.Find(nil, id.Pack())
		if err != nil {
			glog.Exitf("Failed to locate %s: %v", id, err)
		}
		fmt.Printf("0x%08X  %s  (%d words)\n", img.Packed, img.ID, img.Size())
		if !*showBlocks {
			continue
		}
		if err := printBlocks(img); err != nil {
			fmt.Printf("    invalid download map: %v\n", err)
			bad++
		}
	}

	if bad > 0 {
		fmt.Printf("\n%d of %d images have an invalid download map\n", bad, n)
		os.Exit(1)
	}
}

func printBlocks(img imagelib.Image) error {
	entries, err := npe.ParseDownloadMap(img.Body)
	if err != nil {
		return err
	}
	for _, e := range entries {
		switch e.Type {
		case npe.BlockInstruction, npe.BlockData:
			blk, err := npe.ParseCodeBlock(img.Body, e.Offset)
			if err != nil {
				return err
			}
			fmt.Printf("    %-11s addr 0x%04X  %d words\n", e.Type, blk.Addr, len(blk.Words))
		case npe.BlockState:
			blk, err := npe.ParseStateInfoBlock(img.Body, e.Offset)
			if err != nil {
				return err
			}
			fmt.Printf("    %-11s %d entries\n", e.Type, len(blk.Entries))
			for _, s := range blk.Entries {
				a := npe.DecodeContextRegAddr(s.AddrInfo)
				fmt.Printf("      context %2d %-7s = 0x%04X\n", a.Context, a.Reg, s.Value)
			}
		default:
			return fmt.Errorf("unknown block type %s at offset %d", e.Type, e.Offset)
		}
	}
	return nil
}
