// Package engine drives one network processing engine through its register
// window: debug instruction execution, logical, physical and context store
// register access, the stop/reset/start state machine and the memory and
// state-info loader.
//
// An Engine is not safe for concurrent use. Callers serialize all calls per
// engine.
package engine

import (
	"fmt"

	"github.com/moffa90/go-npedl/npe"
	"github.com/moffa90/go-npedl/regbus"
)

// State is the control state of an engine.
type State int

const (
	// StateUnknown is the state of a freshly mapped engine. The first control
	// operation samples the status register to leave it.
	StateUnknown State = iota

	// StateStopped means the engine is halted and may be reset or started.
	StateStopped

	// StateRunning means the engine is executing firmware.
	StateRunning

	// StateResetting is held while a reset sequence runs.
	StateResetting

	// StateUnresponsive is entered when a debug instruction or a reset step
	// fails. Only remapping the engine leaves it.
	StateUnresponsive
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateResetting:
		return "resetting"
	case StateUnresponsive:
		return "unresponsive"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Logger is an optional structured logger.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// Config bounds the busy-polls of an engine.
type Config struct {
	// ExecPolls bounds the watch count poll of one debug instruction
	ExecPolls int

	// StatusPolls bounds the run/stop status poll after a command
	StatusPolls int

	// FIFODrain bounds each FIFO drain of a reset
	FIFODrain int

	// Logger is used for logging operations (optional)
	Logger Logger
}

// DefaultConfig returns the default poll bounds and no logger.
func DefaultConfig() Config {
	return Config{
		ExecPolls:   npe.MaxExecPolls,
		StatusPolls: npe.MaxStatusPolls,
		FIFODrain:   npe.MaxFIFODrain,
	}
}

// Stats counts engine operations and failures. Counters only grow until
// reset with StatsReset.
type Stats struct {
	InstructionBlocksLoaded uint64
	DataBlocksLoaded        uint64
	StateInfoBlocksLoaded   uint64
	CriticalEngineErrors    uint64
	CriticalMicrocodeErrors uint64
	Starts                  uint64
	Stops                   uint64
	Resets                  uint64

	InsMemWrites      uint64
	InsMemWriteFails  uint64
	DataMemWrites     uint64
	DataMemWriteFails uint64
	ECSRegReads       uint64
	ECSRegWrites      uint64
	DebugInstructions uint64
	ContextRegWrites  uint64
	PhysicalRegWrites uint64
	NextPCWrites      uint64
}

// Add returns the field-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	s.InstructionBlocksLoaded += o.InstructionBlocksLoaded
	s.DataBlocksLoaded += o.DataBlocksLoaded
	s.StateInfoBlocksLoaded += o.StateInfoBlocksLoaded
	s.CriticalEngineErrors += o.CriticalEngineErrors
	s.CriticalMicrocodeErrors += o.CriticalMicrocodeErrors
	s.Starts += o.Starts
	s.Stops += o.Stops
	s.Resets += o.Resets
	s.InsMemWrites += o.InsMemWrites
	s.InsMemWriteFails += o.InsMemWriteFails
	s.DataMemWrites += o.DataMemWrites
	s.DataMemWriteFails += o.DataMemWriteFails
	s.ECSRegReads += o.ECSRegReads
	s.ECSRegWrites += o.ECSRegWrites
	s.DebugInstructions += o.DebugInstructions
	s.ContextRegWrites += o.ContextRegWrites
	s.PhysicalRegWrites += o.PhysicalRegWrites
	s.NextPCWrites += o.NextPCWrites
	return s
}

// Engine controls one engine through its register window.
type Engine struct {
	id       npe.ID
	bus      regbus.Bus
	layout   npe.Layout
	features regbus.FeatureControl
	config   Config

	state State
	stats Stats

	// values saved by PreExec for PostExec
	savedEXCT    uint32
	savedDbgReg2 uint32
}

// New returns an Engine for id on bus. features is used by Reset for the
// parity workaround.
//
// Example:
//
//	bus, _ := mapper.Map(npe.NPEB, layout)
//	e := engine.New(npe.NPEB, bus, layout, features, engine.DefaultConfig())
//	if err := e.Stop(); err != nil {
//	    return err
//	}
func New(id npe.ID, bus regbus.Bus, layout npe.Layout, features regbus.FeatureControl, cfg Config) *Engine {
	if bus == nil {
		panic("bus cannot be nil")
	}
	def := DefaultConfig()
	if cfg.ExecPolls <= 0 {
		cfg.ExecPolls = def.ExecPolls
	}
	if cfg.StatusPolls <= 0 {
		cfg.StatusPolls = def.StatusPolls
	}
	if cfg.FIFODrain <= 0 {
		cfg.FIFODrain = def.FIFODrain
	}
	return &Engine{
		id:       id,
		bus:      bus,
		layout:   layout,
		features: features,
		config:   cfg,
	}
}

// ID returns the engine id.
func (e *Engine) ID() npe.ID { return e.id }

// State returns the control state.
func (e *Engine) State() State { return e.state }

// Stats returns a snapshot of the counters.
func (e *Engine) Stats() Stats { return e.stats }

// StatsReset zeroes the counters.
func (e *Engine) StatsReset() { e.stats = Stats{} }

func (e *Engine) logDebug(msg string, keysAndValues ...interface{}) {
	if e.config.Logger != nil {
		e.config.Logger.Debug(msg, append([]interface{}{"engine", e.id.String()}, keysAndValues...)...)
	}
}

func (e *Engine) logError(msg string, keysAndValues ...interface{}) {
	if e.config.Logger != nil {
		e.config.Logger.Error(msg, append([]interface{}{"engine", e.id.String()}, keysAndValues...)...)
	}
}
