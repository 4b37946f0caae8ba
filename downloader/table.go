package downloader

import (
	"github.com/moffa90/go-npedl/engine"
	"github.com/moffa90/go-npedl/imagelib"
	"github.com/moffa90/go-npedl/npe"
)

// engineSlot is the per-engine state of the downloader.
type engineSlot struct {
	engine *engine.Engine
	layout npe.Layout

	// loaded is the last image downloaded, meaningful only when validImage
	loaded     imagelib.ImageID
	validImage bool
	started    bool

	// counters of engines released by Uninit
	retired engine.Stats
}

// EngineTable holds one slot per engine id. Slots exist for the lifetime of
// the Downloader; the engines inside them only between Init and Uninit.
type EngineTable struct {
	slots [npe.NumEngines]engineSlot
}

func (t *EngineTable) slot(id npe.ID) *engineSlot {
	return &t.slots[id]
}

// Engine returns the mapped engine of id, or nil before Init.
func (t *EngineTable) Engine(id npe.ID) *engine.Engine {
	if !id.Valid() {
		return nil
	}
	return t.slots[id].engine
}

// Layout returns the layout id was mapped with.
func (t *EngineTable) Layout(id npe.ID) npe.Layout {
	if !id.Valid() {
		return npe.Layout{}
	}
	return t.slots[id].layout
}

// Started reports whether id was started by the downloader and not stopped
// since.
func (t *EngineTable) Started(id npe.ID) bool {
	return id.Valid() && t.slots[id].started
}

// engineStats returns the counters of id including engines already released.
func (s *engineSlot) engineStats() engine.Stats {
	if s.engine == nil {
		return s.retired
	}
	return s.retired.Add(s.engine.Stats())
}

func (s *engineSlot) statsReset() {
	s.retired = engine.Stats{}
	if s.engine != nil {
		s.engine.StatsReset()
	}
}
