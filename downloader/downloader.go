package downloader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-npedl/engine"
	"github.com/moffa90/go-npedl/imagelib"
	"github.com/moffa90/go-npedl/npe"
	"github.com/moffa90/go-npedl/regbus"
)

// Downloader loads firmware images into the engines and controls their
// execution. It owns the engine table, the image library manager and the
// download statistics.
//
// A Downloader is not safe for concurrent use.
type Downloader struct {
	mapper   regbus.Mapper
	features regbus.FeatureControl
	config   Config

	images *imagelib.Manager
	table  EngineTable

	device      npe.DeviceType
	stepping    uint32
	initialized bool

	stats downloadStats
}

type downloadStats struct {
	attempted    uint64
	successful   uint64
	criticalFail uint64
}

// New creates a new Downloader mapping engine windows through mapper.
// features may be nil on boards without a feature control register; every
// engine is then treated as present and the parity workaround is skipped.
//
// Example:
//
//	dl := downloader.New(regbus.NewDevMem(regbus.DefaultDevMem), &regbus.FeatureRegister{},
//	    downloader.WithLibrary(lib),
//	    downloader.WithLogger(downloader.GlogLogger{}),
//	)
//	if err := dl.Init(); err != nil {
//	    return err
//	}
//	defer dl.Uninit()
func New(mapper regbus.Mapper, features regbus.FeatureControl, opts ...Option) *Downloader {
	if mapper == nil {
		panic("mapper cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &Downloader{
		mapper:   mapper,
		features: features,
		config:   cfg,
		images:   imagelib.NewManager(cfg.Library),
	}

	if cfg.Registry != nil {
		if err := cfg.Registry.Register(NewCollector(d)); err != nil {
			d.logError("register statistics collector", "error", err)
		}
	}
	return d
}

// Init maps the register window of every engine. Calling Init again before
// Uninit does nothing.
func (d *Downloader) Init() error {
	if d.initialized {
		return nil
	}

	if err := d.identify(); err != nil {
		return err
	}

	layouts := npe.DefaultLayouts(d.device)
	for id, l := range d.config.Layouts {
		if id.Valid() {
			layouts[id] = l
		}
	}

	cfg := engine.Config{
		ExecPolls:   d.config.ExecPolls,
		StatusPolls: d.config.StatusPolls,
		FIFODrain:   d.config.FIFOPolls,
		Logger:      d.config.Logger,
	}
	for i, l := range layouts {
		id := npe.ID(i)
		bus, err := d.mapper.Map(id, l)
		if err != nil {
			d.release()
			return npe.Wrap(npe.CodeFail, fmt.Sprintf("map %s", id), err)
		}
		s := d.table.slot(id)
		s.engine = engine.New(id, bus, l, d.features, cfg)
		s.layout = l
	}

	d.initialized = true
	d.logInfo("Downloader initialized",
		"device", d.device.String(),
		"stepping", d.stepping,
	)
	return nil
}

// identify determines the device type and silicon stepping.
func (d *Downloader) identify() error {
	d.device, d.stepping = npe.IXP42X, 0
	if d.features != nil {
		pid, err := d.features.ProductID()
		if err != nil {
			return npe.Wrap(npe.CodeFail, "read product id", err)
		}
		d.device = npe.DeviceTypeOf(pid)
		d.stepping = npe.SteppingOf(pid)
	}
	if d.config.DeviceType != nil {
		d.device = *d.config.DeviceType
	}
	if !d.device.Valid() {
		return npe.Errorf(npe.CodeParam, "init", "unsupported device %s", d.device)
	}
	return nil
}

// Uninit unmaps every engine window. Engine statistics survive until
// StatsReset.
func (d *Downloader) Uninit() error {
	if !d.initialized {
		return ErrNotInitialized
	}
	err := d.release()
	d.initialized = false
	d.logInfo("Downloader uninitialized")
	return err
}

// release unmaps every mapped engine and returns the first unmap error.
func (d *Downloader) release() error {
	var first error
	for i := range d.table.slots {
		s := &d.table.slots[i]
		if s.engine == nil {
			continue
		}
		s.retired = s.retired.Add(s.engine.Stats())
		s.engine = nil
		s.started = false
		if err := d.mapper.Unmap(npe.ID(i)); err != nil && first == nil {
			first = npe.Wrap(npe.CodeFail, fmt.Sprintf("unmap %s", npe.ID(i)), err)
		}
	}
	return first
}

// Engines returns the engine table.
func (d *Downloader) Engines() *EngineTable {
	return &d.table
}

// Device returns the device type found by Init.
func (d *Downloader) Device() npe.DeviceType {
	return d.device
}

// Download stops and resets the engine of id, loads the image id from the
// default library and starts the engine. verify reads back every word and
// register written.
//
// On a disabled engine Download logs a warning and returns nil without
// touching the hardware.
//
// Example:
//
//	id := imagelib.ImageID{Engine: npe.NPEB, Functionality: 0x01}
//	if err := dl.LatestImage(&id); err != nil {
//	    return err
//	}
//	err := dl.Download(ctx, id, true)
func (d *Downloader) Download(ctx context.Context, id imagelib.ImageID, verify bool) error {
	s, skip, err := d.prepare(ctx, "download", id.Engine)
	if err != nil || skip {
		return err
	}
	return d.install(s, id, verify, func() (imagelib.Image, error) {
		return d.images.Locate(id)
	})
}

// InitAndStart initializes the downloader if needed, then finds the image
// whose packed id equals packed in the default library and installs it with
// verification.
func (d *Downloader) InitAndStart(ctx context.Context, packed uint32) error {
	return d.initAndStart(ctx, nil, packed)
}

// CustomImageInitAndStart is InitAndStart with the image taken from lib
// instead of the default library.
func (d *Downloader) CustomImageInitAndStart(ctx context.Context, lib *imagelib.Library, packed uint32) error {
	if lib == nil {
		return npe.Errorf(npe.CodeParam, "init and start", "nil library")
	}
	return d.initAndStart(ctx, lib, packed)
}

func (d *Downloader) initAndStart(ctx context.Context, lib *imagelib.Library, packed uint32) error {
	id := imagelib.Unpack(packed)
	if !id.Device.Valid() {
		return npe.Errorf(npe.CodeParam, "init and start", "invalid device %s in image id 0x%08X", id.Device, packed)
	}
	if !id.Engine.Valid() {
		return npe.Errorf(npe.CodeParam, "init and start", "invalid engine %s in image id 0x%08X", id.Engine, packed)
	}

	if err := d.Init(); err != nil {
		return err
	}
	if id.Device > d.device {
		return &DeviceMismatchError{Image: id.Device, Running: d.device}
	}

	s, skip, err := d.prepare(ctx, "init and start", id.Engine)
	if err != nil || skip {
		return err
	}
	return d.install(s, id, true, func() (imagelib.Image, error) {
		return d.images.Find(lib, packed)
	})
}

// install runs a complete download into s.
func (d *Downloader) install(s *engineSlot, id imagelib.ImageID, verify bool, locate func() (imagelib.Image, error)) error {
	startTime := time.Now()
	d.stats.attempted++
	progress := Progress{Engine: id.Engine, Image: id}

	report := func(phase string, pct float64) {
		progress.Phase = phase
		progress.Percentage = pct
		progress.ElapsedTime = time.Since(startTime)
		d.reportProgress(progress)
	}

	// the engine memory is about to change
	s.validImage = false

	report(PhaseResetting, 0)
	if err := d.stopAndReset(s); err != nil {
		return fmt.Errorf("stop and reset %s: %w", id.Engine, err)
	}

	report(PhaseLocating, 20)
	img, err := locate()
	if err != nil {
		return fmt.Errorf("locate %s: %w", id, err)
	}
	progress.ImageWords = img.Size()

	report(PhaseLoading, 30)
	if err := s.engine.LoadImage(img.Body, verify); err != nil {
		if errors.Is(err, npe.ErrCriticalEngine) || errors.Is(err, npe.ErrCriticalMicrocode) {
			d.stats.criticalFail++
		}
		d.logError("Image load failed", "engine", id.Engine.String(), "image", img.ID.String(), "error", err)
		return fmt.Errorf("load %s: %w", img.ID, err)
	}
	s.loaded = img.ID
	s.validImage = true

	report(PhaseStarting, 90)
	if err := s.engine.Start(); err != nil {
		return fmt.Errorf("start %s: %w", id.Engine, err)
	}
	s.started = true

	report(PhaseComplete, 100)
	d.stats.successful++
	d.logInfo("Image downloaded",
		"engine", id.Engine.String(),
		"image", img.ID.String(),
		"words", img.Size(),
		"elapsed", time.Since(startTime).String(),
	)
	return nil
}

// StopAndReset stops the engine of id, unless it is already stopped, and
// resets it.
func (d *Downloader) StopAndReset(ctx context.Context, id npe.ID) error {
	s, skip, err := d.prepare(ctx, "stop and reset", id)
	if err != nil || skip {
		return err
	}
	return d.stopAndReset(s)
}

func (d *Downloader) stopAndReset(s *engineSlot) error {
	if s.engine.Refresh() != engine.StateStopped {
		if err := s.engine.Stop(); err != nil {
			return err
		}
	}
	s.started = false
	return s.engine.Reset()
}

// ExecutionStart starts the engine of id. An engine already running is left
// alone.
func (d *Downloader) ExecutionStart(ctx context.Context, id npe.ID) error {
	s, skip, err := d.prepare(ctx, "execution start", id)
	if err != nil || skip {
		return err
	}
	if s.engine.Refresh() == engine.StateRunning {
		return nil
	}
	if err := s.engine.Start(); err != nil {
		return err
	}
	s.started = true
	return nil
}

// ExecutionStop stops the engine of id. An engine known to be stopped is
// left alone.
func (d *Downloader) ExecutionStop(ctx context.Context, id npe.ID) error {
	s, skip, err := d.prepare(ctx, "execution stop", id)
	if err != nil || skip {
		return err
	}
	if s.engine.Refresh() == engine.StateStopped {
		s.started = false
		return nil
	}
	if err := s.engine.Stop(); err != nil {
		return err
	}
	s.started = false
	return nil
}

// prepare validates a per-engine call and applies presence gating. skip is
// true when the engine is disabled on this silicon and the call must return
// nil without touching the hardware.
func (d *Downloader) prepare(ctx context.Context, op string, id npe.ID) (s *engineSlot, skip bool, err error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if !id.Valid() {
		return nil, false, npe.Errorf(npe.CodeParam, op, "invalid engine %s", id)
	}
	if !d.initialized {
		return nil, false, ErrNotInitialized
	}

	present, err := d.present(id)
	if err != nil {
		return nil, false, err
	}
	if !present {
		d.logInfo("Engine component not present on this device, ignoring request",
			"engine", id.String(), "operation", op)
		return nil, true, nil
	}
	return d.table.slot(id), false, nil
}

// present reports whether the engine is enabled. Early IXP42x silicon has no
// meaningful feature bits and every engine counts as present.
func (d *Downloader) present(id npe.ID) (bool, error) {
	if d.features == nil {
		return true, nil
	}
	if d.device == npe.IXP42X && d.stepping == npe.SteppingA0 {
		return true, nil
	}
	v, err := d.features.ReadFeatures()
	if err != nil {
		return false, npe.Wrap(npe.CodeFail, "read feature control", err)
	}
	return regbus.ComponentPresent(v, id), nil
}

// AvailableImagesCount returns the number of images in the default library.
func (d *Downloader) AvailableImagesCount() (int, error) {
	return d.images.ListExtract(nil)
}

// AvailableImages fills out with the ids of the default library's images and
// returns the number of images in the library. See imagelib.Manager.ListExtract.
func (d *Downloader) AvailableImages(out []imagelib.ImageID) (int, error) {
	return d.images.ListExtract(out)
}

// LoadedImage returns the id of the image last downloaded to id.
func (d *Downloader) LoadedImage(id npe.ID) (imagelib.ImageID, error) {
	if !id.Valid() {
		return imagelib.ImageID{}, npe.Errorf(npe.CodeParam, "loaded image", "invalid engine %s", id)
	}
	if absent, err := d.absent("loaded image", id); err != nil {
		return imagelib.ImageID{}, err
	} else if absent {
		return imagelib.ImageID{}, &NoImageError{Engine: id}
	}
	s := d.table.slot(id)
	if !s.validImage {
		return imagelib.ImageID{}, &NoImageError{Engine: id}
	}
	return s.loaded, nil
}

// LoadedImageFunctionality returns the functionality of the image last
// downloaded to id.
func (d *Downloader) LoadedImageFunctionality(id npe.ID) (uint8, error) {
	img, err := d.LoadedImage(id)
	if err != nil {
		return 0, err
	}
	return img.Functionality, nil
}

// LatestImage sets the release of id to the newest release in the default
// library with the same engine and functionality. An engine that is not
// present leaves id unchanged.
func (d *Downloader) LatestImage(id *imagelib.ImageID) error {
	if id != nil && id.Engine.Valid() {
		if absent, err := d.absent("latest image", id.Engine); err != nil || absent {
			return err
		}
	}
	return d.images.LatestExtract(id)
}

// absent reports whether an initialized downloader runs on silicon without
// engine id. Queries made before Init are not gated.
func (d *Downloader) absent(op string, id npe.ID) (bool, error) {
	if !d.initialized {
		return false, nil
	}
	present, err := d.present(id)
	if err != nil {
		return false, err
	}
	if !present {
		d.logInfo("Engine component not present on this device, ignoring request",
			"engine", id.String(), "operation", op)
	}
	return !present, nil
}

// OverrideLibrary replaces the default image library.
func (d *Downloader) OverrideLibrary(lib *imagelib.Library) error {
	if lib == nil {
		return npe.Errorf(npe.CodeParam, "override library", "nil library")
	}
	d.images.Override(lib)
	return nil
}

// reportProgress calls the progress callback if configured.
func (d *Downloader) reportProgress(progress Progress) {
	if d.config.ProgressCallback != nil {
		d.config.ProgressCallback(progress)
	}
}

// logInfo logs an info message if a logger is configured.
func (d *Downloader) logInfo(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (d *Downloader) logError(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Error(msg, keysAndValues...)
	}
}
