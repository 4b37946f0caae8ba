// Package downloader provides the high-level API for loading firmware into
// the network processing engines.
//
// # Overview
//
// This package orchestrates the complete download sequence:
//   - Checking that the engine is enabled on this silicon
//   - Stopping and resetting the engine
//   - Locating the image in the image library
//   - Loading instruction, data and state-info blocks
//   - Starting the engine
//
// # Basic Usage
//
//	lib, err := imagelib.Parse("/lib/firmware/NPE-B")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	dl := downloader.New(regbus.NewDevMem(regbus.DefaultDevMem), &regbus.FeatureRegister{},
//	    downloader.WithLibrary(lib),
//	)
//	if err := dl.Init(); err != nil {
//	    log.Fatal(err)
//	}
//	defer dl.Uninit()
//
//	id := imagelib.ImageID{Engine: npe.NPEB, Functionality: 0x01}
//	if err := dl.LatestImage(&id); err != nil {
//	    log.Fatal(err)
//	}
//	if err := dl.Download(context.Background(), id, true); err != nil {
//	    log.Fatal(err)
//	}
//
// Images can also be selected by their packed id word, which carries the
// target device:
//
//	err := dl.InitAndStart(ctx, 0x01020100)
//
// # Progress Tracking
//
//	dl := downloader.New(mapper, features,
//	    downloader.WithProgressCallback(func(p downloader.Progress) {
//	        fmt.Printf("[%s] %s %.0f%%\n", p.Phase, p.Engine, p.Percentage)
//	    }),
//	)
//
// # Disabled Engines
//
// Engines fused out in the feature control register are skipped: every
// per-engine operation logs a message and returns nil without touching the
// hardware. The first IXP42x stepping has no usable feature bits and never
// skips.
//
// # Error Handling
//
// Errors carry a code from package npe and match its sentinels with
// errors.Is:
//   - npe.ErrParam: invalid engine or image id
//   - npe.ErrDevice: image built for a newer device (DeviceMismatchError)
//   - npe.ErrCriticalEngine: timeout or failed read-back, engine state suspect
//   - npe.ErrCriticalMicrocode: malformed image, engine still under control
//   - npe.ErrFail: anything else, such as an image not found
//
// # Statistics
//
// Stats, StatsReset and StatsShow cover the downloads, the image library and
// every engine. WithRegistry exports the same counters to Prometheus.
package downloader
