package downloader

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/moffa90/go-npedl/imagelib"
	"github.com/moffa90/go-npedl/npe"
)

// Config holds the downloader configuration.
type Config struct {
	// ProgressCallback is called during downloads to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Library is the default image library (optional)
	Library *imagelib.Library

	// DeviceType overrides the device read from the product id
	DeviceType *npe.DeviceType

	// Layouts overrides the register window and memory sizes of single engines
	Layouts map[npe.ID]npe.Layout

	// ExecPolls bounds the completion poll of one debug instruction
	ExecPolls int

	// StatusPolls bounds the run/stop status poll after a command
	StatusPolls int

	// FIFOPolls bounds each FIFO drain of a reset
	FIFOPolls int

	// Registry receives a Collector for the statistics (optional)
	Registry prometheus.Registerer
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ExecPolls:   npe.MaxExecPolls,
		StatusPolls: npe.MaxStatusPolls,
		FIFOPolls:   npe.MaxFIFODrain,
	}
}

// Option is a functional option for configuring the Downloader.
type Option func(*Config)

// WithProgressCallback sets a callback function to track download progress.
//
// Example:
//
//	dl := downloader.New(mapper, features,
//	    downloader.WithProgressCallback(func(p downloader.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the downloader and its engines.
//
// Example:
//
//	dl := downloader.New(mapper, features, downloader.WithLogger(downloader.GlogLogger{}))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithLibrary sets the default image library.
//
// Example:
//
//	lib, _ := imagelib.Parse("/lib/firmware/NPE-B")
//	dl := downloader.New(mapper, features, downloader.WithLibrary(lib))
func WithLibrary(lib *imagelib.Library) Option {
	return func(c *Config) {
		c.Library = lib
	}
}

// WithDeviceType fixes the device type instead of reading it from the
// product id register.
func WithDeviceType(d npe.DeviceType) Option {
	return func(c *Config) {
		c.DeviceType = &d
	}
}

// WithLayout overrides the register window and memory sizes of one engine.
func WithLayout(id npe.ID, l npe.Layout) Option {
	return func(c *Config) {
		if c.Layouts == nil {
			c.Layouts = make(map[npe.ID]npe.Layout)
		}
		c.Layouts[id] = l
	}
}

// WithExecPolls sets how many times the watch count is polled after a
// single-step before the engine is declared unresponsive.
func WithExecPolls(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.ExecPolls = n
		}
	}
}

// WithStatusPolls sets how many times the run/stop status is polled after a
// start or stop command.
func WithStatusPolls(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.StatusPolls = n
		}
	}
}

// WithFIFOPolls bounds each FIFO drain of a reset.
func WithFIFOPolls(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.FIFOPolls = n
		}
	}
}

// WithRegistry registers a Collector for the downloader statistics.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	dl := downloader.New(mapper, features, downloader.WithRegistry(reg))
func WithRegistry(reg prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = reg
	}
}
