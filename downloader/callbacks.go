package downloader

import (
	"time"

	"github.com/moffa90/go-npedl/engine"
	"github.com/moffa90/go-npedl/imagelib"
	"github.com/moffa90/go-npedl/npe"
)

// Progress phases reported during a download.
const (
	PhaseResetting = "resetting"
	PhaseLocating  = "locating"
	PhaseLoading   = "loading"
	PhaseStarting  = "starting"
	PhaseComplete  = "complete"
)

// Progress contains information about the download progress.
// Passed to ProgressCallback during downloads.
type Progress struct {
	// Phase describes the current operation phase:
	//   "resetting" - Stopping and resetting the engine
	//   "locating"  - Locating the image in the library
	//   "loading"   - Writing the image blocks
	//   "starting"  - Starting the engine
	//   "complete"  - Download completed successfully
	Phase string

	// Engine is the engine being downloaded to
	Engine npe.ID

	// Image is the requested image
	Image imagelib.ImageID

	// ImageWords is the size of the located image, zero before locating
	ImageWords int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time elapsed since the download started
	ElapsedTime time.Duration
}

// ProgressCallback is called at each phase of a download.
// Implementations should return quickly to avoid blocking the download.
//
// Example:
//
//	dl := downloader.New(mapper, features,
//	    downloader.WithProgressCallback(func(p downloader.Progress) {
//	        fmt.Printf("[%s] %s %.0f%%\n", p.Phase, p.Engine, p.Percentage)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the
// downloader. It is shared with the engines the downloader drives.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	dl := downloader.New(mapper, features, downloader.WithLogger(&StdLogger{}))
type Logger = engine.Logger
