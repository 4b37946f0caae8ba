package downloader

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/moffa90/go-npedl/engine"
	"github.com/moffa90/go-npedl/imagelib"
	"github.com/moffa90/go-npedl/internal/npesim"
	"github.com/moffa90/go-npedl/npe"
)

// Mock logger for testing
type MockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}

var (
	imageB1 = imagelib.ImageID{Device: npe.IXP46X, Engine: npe.NPEB, Functionality: 0x01, Major: 1, Minor: 0}
	imageB2 = imagelib.ImageID{Device: npe.IXP46X, Engine: npe.NPEB, Functionality: 0x01, Major: 2, Minor: 0}
	imageC1 = imagelib.ImageID{Device: npe.IXP46X, Engine: npe.NPEC, Functionality: 0x02, Major: 1, Minor: 0}
)

const startPC = 0x0002

func stateAddr(ctx uint32, reg npe.ContextReg) uint32 {
	return npe.ContextRegAddr{Context: ctx, Reg: reg}.Encode()
}

func goodBody() []uint32 {
	return npesim.BuildImage(
		npesim.Block{Type: npe.BlockInstruction, Addr: 0, Words: []uint32{0x11, 0x22, 0x33}},
		npesim.Block{Type: npe.BlockData, Addr: 0x100, Words: []uint32{0xAA}},
		npesim.Block{Type: npe.BlockState, State: []npe.StateEntry{
			{AddrInfo: stateAddr(0, npe.CtxSTARTPC), Value: startPC},
			{AddrInfo: stateAddr(1, npe.CtxREGMAP), Value: 0x5},
		}},
	)
}

func testImages() []npesim.Image {
	return []npesim.Image{
		{ID: imageB1.Pack(), Body: goodBody()},
		{ID: imageB2.Pack(), Body: goodBody()},
		{ID: imageC1.Pack(), Body: goodBody()},
	}
}

func newTestDownloader(t *testing.T, lib *imagelib.Library, opts ...Option) (*Downloader, *npesim.Mapper, *npesim.Features) {
	t.Helper()
	m := npesim.NewMapper(npe.IXP46X)
	f := &npesim.Features{Product: npesim.ProductID(npe.IXP46X, 1)}
	base := []Option{
		WithLibrary(lib),
		WithExecPolls(8),
		WithStatusPolls(8),
		WithFIFOPolls(16),
	}
	return New(m, f, append(base, opts...)...), m, f
}

func legacyLibrary(images ...npesim.Image) *imagelib.Library {
	return imagelib.FromWords(npesim.LegacyLibrary(images...))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		options []Option
	}{
		{
			name:    "with no options",
			options: nil,
		},
		{
			name: "with all options",
			options: []Option{
				WithProgressCallback(func(p Progress) {}),
				WithLogger(&MockLogger{}),
				WithLibrary(legacyLibrary(testImages()...)),
				WithDeviceType(npe.IXP43X),
				WithLayout(npe.NPEA, npe.Layout{InsWords: 16, DataWords: 16}),
				WithExecPolls(5),
				WithStatusPolls(6),
				WithFIFOPolls(7),
				WithRegistry(prometheus.NewRegistry()),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(npesim.NewMapper(npe.IXP46X), nil, tt.options...)
			if d == nil {
				t.Fatal("New() returned nil")
			}
			if d.config.ExecPolls <= 0 || d.config.StatusPolls <= 0 || d.config.FIFOPolls <= 0 {
				t.Errorf("poll bounds not set: %+v", d.config)
			}
		})
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil mapper")
		}
	}()
	New(nil, nil)
}

func TestInitUninit(t *testing.T) {
	d, m, _ := newTestDownloader(t, nil)

	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := d.Init(); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if m.MapCalls != npe.NumEngines {
		t.Errorf("MapCalls = %d, want %d", m.MapCalls, npe.NumEngines)
	}
	if d.Device() != npe.IXP46X {
		t.Errorf("Device() = %s, want IXP46X", d.Device())
	}
	if d.Engines().Engine(npe.NPEB) == nil {
		t.Error("NPE-B not mapped")
	}

	if err := d.Uninit(); err != nil {
		t.Fatalf("Uninit: %v", err)
	}
	if m.UnmapCalls != npe.NumEngines {
		t.Errorf("UnmapCalls = %d, want %d", m.UnmapCalls, npe.NumEngines)
	}
	if d.Engines().Engine(npe.NPEB) != nil {
		t.Error("engine kept after Uninit")
	}
	if err := d.Uninit(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("second Uninit = %v, want ErrNotInitialized", err)
	}
	if err := d.StopAndReset(context.Background(), npe.NPEB); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("StopAndReset after Uninit = %v, want ErrNotInitialized", err)
	}
}

func TestInitFailures(t *testing.T) {
	t.Run("map error", func(t *testing.T) {
		d, m, _ := newTestDownloader(t, nil)
		m.MapErr = errors.New("no /dev/mem")
		if err := d.Init(); err == nil {
			t.Fatal("expected error")
		}
		if err := d.ExecutionStart(context.Background(), npe.NPEA); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("ExecutionStart = %v, want ErrNotInitialized", err)
		}
	})

	t.Run("unknown device", func(t *testing.T) {
		d, _, _ := newTestDownloader(t, nil, WithDeviceType(npe.DeviceType(5)))
		if err := d.Init(); !errors.Is(err, npe.ErrParam) {
			t.Errorf("Init = %v, want parameter error", err)
		}
	})
}

func TestDownload(t *testing.T) {
	var phases []string
	logger := &MockLogger{}
	d, m, _ := newTestDownloader(t, legacyLibrary(testImages()...),
		WithLogger(logger),
		WithProgressCallback(func(p Progress) {
			phases = append(phases, p.Phase)
			if p.Engine != npe.NPEB {
				t.Errorf("progress for %s, want NPE-B", p.Engine)
			}
		}),
	)
	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	id := imagelib.ImageID{Engine: npe.NPEB, Functionality: 0x01}
	if err := d.LatestImage(&id); err != nil {
		t.Fatalf("LatestImage: %v", err)
	}
	if err := d.Download(context.Background(), id, true); err != nil {
		t.Fatalf("Download: %v", err)
	}

	sim := m.Engines[npe.NPEB]
	if diff := cmp.Diff([]uint32{0x11, 0x22, 0x33}, sim.Ins()[:3]); diff != "" {
		t.Errorf("instruction memory mismatch (-want +got):\n%s", diff)
	}
	if sim.Data()[0x100] != 0xAA {
		t.Errorf("data word = 0x%X, want 0xAA", sim.Data()[0x100])
	}
	if !sim.Running() || sim.StartPC != startPC {
		t.Errorf("running %v from 0x%X, want running from 0x%X", sim.Running(), sim.StartPC, startPC)
	}
	if !d.Engines().Started(npe.NPEB) {
		t.Error("engine not marked started")
	}

	loaded, err := d.LoadedImage(npe.NPEB)
	if err != nil {
		t.Fatalf("LoadedImage: %v", err)
	}
	if loaded != imageB2 {
		t.Errorf("LoadedImage = %s, want %s", loaded, imageB2)
	}
	if fn, _ := d.LoadedImageFunctionality(npe.NPEB); fn != 0x01 {
		t.Errorf("LoadedImageFunctionality = 0x%X, want 0x01", fn)
	}

	wantPhases := []string{PhaseResetting, PhaseLocating, PhaseLoading, PhaseStarting, PhaseComplete}
	if diff := cmp.Diff(wantPhases, phases); diff != "" {
		t.Errorf("phases mismatch (-want +got):\n%s", diff)
	}

	s := d.Stats()
	if s.AttemptedDownloads != 1 || s.SuccessfulDownloads != 1 || s.CriticalFailDownloads != 0 {
		t.Errorf("download stats = %d/%d/%d, want 1/1/0",
			s.AttemptedDownloads, s.SuccessfulDownloads, s.CriticalFailDownloads)
	}
	es := s.Engines[npe.NPEB]
	if es.Resets != 1 || es.Starts != 1 || es.StateInfoBlocksLoaded != 1 {
		t.Errorf("engine stats = %+v", es)
	}
	if len(logger.infoMsgs) == 0 {
		t.Error("expected info logs")
	}
}

func TestDownloadFailures(t *testing.T) {
	capacity := npe.DefaultLayouts(npe.IXP46X)[npe.NPEB].InsWords
	oversized := npesim.BuildImage(
		npesim.Block{Type: npe.BlockInstruction, Addr: capacity - 1, Words: []uint32{1, 2}},
	)

	tests := []struct {
		name         string
		images       []npesim.Image
		id           imagelib.ImageID
		code         npe.Code
		criticalFail uint64
	}{
		{
			name:   "image not in library",
			images: testImages(),
			id:     imagelib.ImageID{Engine: npe.NPEB, Functionality: 0x01, Major: 9},
			code:   npe.CodeFail,
		},
		{
			name:         "block too large",
			images:       []npesim.Image{{ID: imageB1.Pack(), Body: oversized}},
			id:           imageB1,
			code:         npe.CodeCriticalMicrocode,
			criticalFail: 1,
		},
		{
			name:         "unknown block type",
			images:       []npesim.Image{{ID: imageB1.Pack(), Body: npesim.BuildImage(npesim.Block{Type: 3})}},
			id:           imageB1,
			code:         npe.CodeCriticalMicrocode,
			criticalFail: 1,
		},
		{
			name:   "invalid engine",
			images: testImages(),
			id:     imagelib.ImageID{Engine: npe.ID(7)},
			code:   npe.CodeParam,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, m, _ := newTestDownloader(t, legacyLibrary(tt.images...))
			if err := d.Init(); err != nil {
				t.Fatalf("Init: %v", err)
			}

			err := d.Download(context.Background(), tt.id, true)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := npe.CodeOf(err); got != tt.code {
				t.Errorf("code = %s, want %s (%v)", got, tt.code, err)
			}
			if got := d.Stats().CriticalFailDownloads; got != tt.criticalFail {
				t.Errorf("CriticalFailDownloads = %d, want %d", got, tt.criticalFail)
			}

			var nie *NoImageError
			if _, err := d.LoadedImage(npe.NPEB); !errors.As(err, &nie) {
				t.Errorf("LoadedImage = %v, want NoImageError", err)
			}
			if m.Engines[npe.NPEB].Running() {
				t.Error("engine started after failed download")
			}
		})
	}
}

func TestDownloadReplacesValidImage(t *testing.T) {
	lib := legacyLibrary(testImages()...)
	d, _, _ := newTestDownloader(t, lib)
	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := d.Download(context.Background(), imageB1, false); err != nil {
		t.Fatalf("Download: %v", err)
	}

	// a failed download invalidates the previous image
	missing := imageB1
	missing.Minor = 9
	if err := d.Download(context.Background(), missing, false); err == nil {
		t.Fatal("expected error")
	}
	if _, err := d.LoadedImage(npe.NPEB); err == nil {
		t.Error("previous image still reported after failed download")
	}
}

func TestPresenceGating(t *testing.T) {
	t.Run("fused out engine is skipped", func(t *testing.T) {
		logger := &MockLogger{}
		d, m, f := newTestDownloader(t, legacyLibrary(testImages()...), WithLogger(logger))
		f.Value = npe.NPEC.ResetBit()
		if err := d.Init(); err != nil {
			t.Fatalf("Init: %v", err)
		}

		ctx := context.Background()
		calls := []func() error{
			func() error { return d.Download(ctx, imageC1, true) },
			func() error { return d.StopAndReset(ctx, npe.NPEC) },
			func() error { return d.ExecutionStart(ctx, npe.NPEC) },
			func() error { return d.ExecutionStop(ctx, npe.NPEC) },
		}
		for i, call := range calls {
			if err := call(); err != nil {
				t.Errorf("call %d: %v, want nil", i, err)
			}
		}

		sim := m.Engines[npe.NPEC]
		if sim.Reads != 0 || sim.Writes != 0 {
			t.Errorf("disabled engine touched: %d reads, %d writes", sim.Reads, sim.Writes)
		}
		if len(logger.infoMsgs) < len(calls) || !strings.Contains(logger.infoMsgs[len(logger.infoMsgs)-1], "not present") {
			t.Errorf("info logs = %v", logger.infoMsgs)
		}
		if d.Stats().AttemptedDownloads != 0 {
			t.Error("skipped download counted")
		}

		var noImage *NoImageError
		if _, err := d.LoadedImage(npe.NPEC); !errors.As(err, &noImage) {
			t.Errorf("LoadedImage = %v, want NoImageError", err)
		}
		id := imagelib.ImageID{Engine: npe.NPEC, Functionality: 0x02}
		if err := d.LatestImage(&id); err != nil {
			t.Errorf("LatestImage: %v", err)
		}
		if id.Major != 0 || id.Device != 0 {
			t.Errorf("LatestImage filled %s for an absent engine", id)
		}
	})

	t.Run("first IXP42x stepping ignores feature bits", func(t *testing.T) {
		m := npesim.NewMapper(npe.IXP42X)
		f := &npesim.Features{
			Product: npesim.ProductID(npe.IXP42X, npe.SteppingA0),
			Value:   npe.NPEA.ResetBit() | npe.NPEB.ResetBit() | npe.NPEC.ResetBit(),
		}
		d := New(m, f, WithExecPolls(8), WithStatusPolls(8), WithFIFOPolls(16))
		if err := d.Init(); err != nil {
			t.Fatalf("Init: %v", err)
		}
		if err := d.StopAndReset(context.Background(), npe.NPEC); err != nil {
			t.Fatalf("StopAndReset: %v", err)
		}
		if got := d.Stats().Engines[npe.NPEC].Resets; got != 1 {
			t.Errorf("Resets = %d, want 1", got)
		}
	})
}

func TestInitAndStart(t *testing.T) {
	stream := imagelib.FromWords(npesim.StreamLibrary(testImages()...))

	t.Run("initializes and starts", func(t *testing.T) {
		d, m, _ := newTestDownloader(t, stream)
		if err := d.InitAndStart(context.Background(), imageC1.Pack()); err != nil {
			t.Fatalf("InitAndStart: %v", err)
		}
		if !m.Engines[npe.NPEC].Running() {
			t.Error("NPE-C not running")
		}
		if got, _ := d.LoadedImage(npe.NPEC); got != imageC1 {
			t.Errorf("LoadedImage = %s, want %s", got, imageC1)
		}
	})

	t.Run("custom library", func(t *testing.T) {
		d, _, _ := newTestDownloader(t, nil)
		if err := d.CustomImageInitAndStart(context.Background(), stream, imageB1.Pack()); err != nil {
			t.Fatalf("CustomImageInitAndStart: %v", err)
		}
		if got, _ := d.LoadedImage(npe.NPEB); got != imageB1 {
			t.Errorf("LoadedImage = %s, want %s", got, imageB1)
		}
	})

	t.Run("custom library is required", func(t *testing.T) {
		d, m, _ := newTestDownloader(t, stream)
		if err := d.CustomImageInitAndStart(context.Background(), nil, imageB1.Pack()); !errors.Is(err, npe.ErrParam) {
			t.Errorf("CustomImageInitAndStart(nil) = %v, want parameter error", err)
		}
		if m.MapCalls != 0 {
			t.Errorf("MapCalls = %d, want 0", m.MapCalls)
		}
	})

	tests := []struct {
		name   string
		packed uint32
		target error
	}{
		{"newer device", imagelib.ImageID{Device: npe.IXP43X, Engine: npe.NPEB, Functionality: 1, Major: 1}.Pack(), npe.ErrDevice},
		{"invalid device", imagelib.ImageID{Device: npe.DeviceType(9), Engine: npe.NPEB}.Pack(), npe.ErrParam},
		{"invalid engine", imagelib.ImageID{Device: npe.IXP46X, Engine: npe.ID(4)}.Pack(), npe.ErrParam},
		{"not found", imagelib.ImageID{Device: npe.IXP42X, Engine: npe.NPEB, Functionality: 1, Major: 1}.Pack(), npe.ErrFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _, _ := newTestDownloader(t, stream)
			err := d.InitAndStart(context.Background(), tt.packed)
			if !errors.Is(err, tt.target) {
				t.Errorf("error = %v, want %v", err, tt.target)
			}
		})
	}

	t.Run("device mismatch detail", func(t *testing.T) {
		d, _, _ := newTestDownloader(t, stream)
		var dm *DeviceMismatchError
		err := d.InitAndStart(context.Background(), tests[0].packed)
		if !errors.As(err, &dm) || dm.Image != npe.IXP43X || dm.Running != npe.IXP46X {
			t.Errorf("error = %v, want DeviceMismatchError", err)
		}
	})
}

func TestExecutionStartStop(t *testing.T) {
	d, m, _ := newTestDownloader(t, legacyLibrary(testImages()...))
	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	ctx := context.Background()
	if err := d.Download(ctx, imageB1, true); err != nil {
		t.Fatalf("Download: %v", err)
	}
	sim := m.Engines[npe.NPEB]

	stops := sim.Commands[npe.CmdStop]
	if err := d.ExecutionStop(ctx, npe.NPEB); err != nil {
		t.Fatalf("ExecutionStop: %v", err)
	}
	if err := d.ExecutionStop(ctx, npe.NPEB); err != nil {
		t.Fatalf("second ExecutionStop: %v", err)
	}
	if got := sim.Commands[npe.CmdStop] - stops; got != 1 {
		t.Errorf("stop commands = %d, want 1", got)
	}
	if sim.Running() || d.Engines().Started(npe.NPEB) {
		t.Error("engine still running")
	}

	starts := sim.Commands[npe.CmdStart]
	if err := d.ExecutionStart(ctx, npe.NPEB); err != nil {
		t.Fatalf("ExecutionStart: %v", err)
	}
	if err := d.ExecutionStart(ctx, npe.NPEB); err != nil {
		t.Fatalf("second ExecutionStart: %v", err)
	}
	if got := sim.Commands[npe.CmdStart] - starts; got != 1 {
		t.Errorf("start commands = %d, want 1", got)
	}
	if !sim.Running() {
		t.Error("engine not running")
	}

	if err := d.StopAndReset(ctx, npe.NPEB); err != nil {
		t.Fatalf("StopAndReset: %v", err)
	}
	if sim.Running() || d.Engines().Engine(npe.NPEB).State() != engine.StateStopped {
		t.Error("engine not stopped after reset")
	}
}

func TestCancelledContext(t *testing.T) {
	d, m, _ := newTestDownloader(t, legacyLibrary(testImages()...))
	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.Download(ctx, imageB1, true); !errors.Is(err, context.Canceled) {
		t.Errorf("Download = %v, want context.Canceled", err)
	}
	if m.Engines[npe.NPEB].Writes != 0 {
		t.Error("cancelled download touched the engine")
	}
}

func TestLibraryQueries(t *testing.T) {
	d, _, _ := newTestDownloader(t, nil)

	if _, err := d.AvailableImagesCount(); !errors.Is(err, imagelib.ErrNoLibrary) {
		t.Errorf("count without library = %v, want ErrNoLibrary", err)
	}
	if err := d.OverrideLibrary(nil); !errors.Is(err, npe.ErrParam) {
		t.Errorf("OverrideLibrary(nil) = %v, want parameter error", err)
	}
	if err := d.OverrideLibrary(legacyLibrary(testImages()...)); err != nil {
		t.Fatalf("OverrideLibrary: %v", err)
	}

	n, err := d.AvailableImagesCount()
	if err != nil || n != 3 {
		t.Fatalf("AvailableImagesCount = %d, %v; want 3", n, err)
	}
	out := make([]imagelib.ImageID, n)
	if _, err := d.AvailableImages(out); err != nil {
		t.Fatalf("AvailableImages: %v", err)
	}
	if diff := cmp.Diff([]imagelib.ImageID{imageB1, imageB2, imageC1}, out); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}

	if _, err := d.LoadedImage(npe.ID(3)); !errors.Is(err, npe.ErrParam) {
		t.Errorf("LoadedImage(3) = %v, want parameter error", err)
	}
}

func TestStatsResetAndShow(t *testing.T) {
	d, _, _ := newTestDownloader(t, legacyLibrary(testImages()...))
	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := d.Download(context.Background(), imageB1, true); err != nil {
		t.Fatalf("Download: %v", err)
	}

	// engine counters survive unmapping
	if err := d.Uninit(); err != nil {
		t.Fatalf("Uninit: %v", err)
	}
	if got := d.Stats().Engines[npe.NPEB].Resets; got != 1 {
		t.Errorf("Resets after Uninit = %d, want 1", got)
	}

	var buf bytes.Buffer
	d.StatsShow(&buf)
	for _, want := range []string{
		"attempted:     1",
		"library:       legacy",
		"NPE-B statistics",
		"memory (ins/data): 4096/4096 words",
		"starts/stops/resets: 1/1/1",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("StatsShow output missing %q:\n%s", want, buf.String())
		}
	}

	d.StatsReset()
	if diff := cmp.Diff(Stats{}, d.Stats()); diff != "" {
		t.Errorf("stats after reset (-want +got):\n%s", diff)
	}
}

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	d, _, _ := newTestDownloader(t, legacyLibrary(testImages()...), WithRegistry(reg))
	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := d.Download(context.Background(), imageB1, true); err != nil {
		t.Fatalf("Download: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	total := 0
	var successful float64
	for _, mf := range families {
		total += len(mf.GetMetric())
		if mf.GetName() != "npedl_downloads_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "result" && l.GetValue() == "successful" {
					successful = m.GetCounter().GetValue()
				}
			}
		}
	}
	if successful != 1 {
		t.Errorf("successful downloads metric = %v, want 1", successful)
	}
	// 3 download + 3 library + 18 per engine
	if want := 6 + 18*npe.NumEngines; total != want {
		t.Errorf("gathered %d metrics, want %d", total, want)
	}
}
