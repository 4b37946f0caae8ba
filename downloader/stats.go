package downloader

import (
	"fmt"
	"io"

	"github.com/moffa90/go-npedl/engine"
	"github.com/moffa90/go-npedl/imagelib"
	"github.com/moffa90/go-npedl/npe"
)

// Stats is a snapshot of every statistics counter.
type Stats struct {
	AttemptedDownloads    uint64
	SuccessfulDownloads   uint64
	CriticalFailDownloads uint64

	Images  imagelib.Stats
	Engines [npe.NumEngines]engine.Stats
}

// Stats returns a snapshot of the download, image library and engine
// counters. Engine counters survive Uninit.
func (d *Downloader) Stats() Stats {
	s := Stats{
		AttemptedDownloads:    d.stats.attempted,
		SuccessfulDownloads:   d.stats.successful,
		CriticalFailDownloads: d.stats.criticalFail,
		Images:                d.images.Stats(),
	}
	for i := range d.table.slots {
		s.Engines[i] = d.table.slots[i].engineStats()
	}
	return s
}

// StatsReset zeroes every counter.
func (d *Downloader) StatsReset() {
	d.stats = downloadStats{}
	d.images.StatsReset()
	for i := range d.table.slots {
		d.table.slots[i].statsReset()
	}
}

// StatsShow writes every counter to w.
func (d *Downloader) StatsShow(w io.Writer) {
	s := d.Stats()

	fmt.Fprintf(w, "Download statistics:\n")
	fmt.Fprintf(w, "\tattempted:     %d\n", s.AttemptedDownloads)
	fmt.Fprintf(w, "\tsuccessful:    %d\n", s.SuccessfulDownloads)
	fmt.Fprintf(w, "\tcritical fail: %d\n", s.CriticalFailDownloads)
	if lib := d.images.Library(); lib != nil {
		fmt.Fprintf(w, "\tlibrary:       %s, %d words\n", lib.Format(), lib.Len())
	}

	d.images.StatsShow(w)

	for i, es := range s.Engines {
		fmt.Fprintf(w, "%s statistics:\n", npe.ID(i))
		if l := d.table.Layout(npe.ID(i)); l.InsWords != 0 {
			fmt.Fprintf(w, "\twindow 0x%08X, memory (ins/data): %d/%d words\n", l.Base, l.InsWords, l.DataWords)
		}
		fmt.Fprintf(w, "\tblocks loaded (ins/data/state): %d/%d/%d\n",
			es.InstructionBlocksLoaded, es.DataBlocksLoaded, es.StateInfoBlocksLoaded)
		fmt.Fprintf(w, "\tcritical errors (engine/microcode): %d/%d\n",
			es.CriticalEngineErrors, es.CriticalMicrocodeErrors)
		fmt.Fprintf(w, "\tstarts/stops/resets: %d/%d/%d\n", es.Starts, es.Stops, es.Resets)
		fmt.Fprintf(w, "\tinstruction memory writes: %d (%d failed)\n", es.InsMemWrites, es.InsMemWriteFails)
		fmt.Fprintf(w, "\tdata memory writes: %d (%d failed)\n", es.DataMemWrites, es.DataMemWriteFails)
		fmt.Fprintf(w, "\tECS reads/writes: %d/%d\n", es.ECSRegReads, es.ECSRegWrites)
		fmt.Fprintf(w, "\tdebug instructions: %d\n", es.DebugInstructions)
		fmt.Fprintf(w, "\tregister writes (context/physical/next PC): %d/%d/%d\n",
			es.ContextRegWrites, es.PhysicalRegWrites, es.NextPCWrites)
	}
}
