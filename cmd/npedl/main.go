//go:build linux

// npedl loads firmware images into the network processing engines of an
// IXP4xx board through /dev/mem.
//
// Usage:
//
//	npedl [flags] list
//	npedl [flags] latest <engine> <functionality>
//	npedl [flags] download <engine> <functionality> <major> <minor>
//	npedl [flags] start-image <packed id>
//	npedl [flags] reset|start|stop <engine>
//	npedl [flags] stats
//
// Engines are named NPE-A, NPE-B and NPE-C.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/moffa90/go-npedl/config"
	"github.com/moffa90/go-npedl/downloader"
	"github.com/moffa90/go-npedl/imagelib"
	"github.com/moffa90/go-npedl/regbus"
)

var (
	boardFile   = flag.String("board", "", "Path to a YAML board description. Empty uses the stock IXP42x board.")
	libraryFile = flag.String("library", "", "Image library to use instead of the board's.")
	metricsFile = flag.String("metrics_file", "", "Write statistics in Prometheus text format to this file.")
	noVerify    = flag.Bool("no_verify", false, "Skip the read-back check of every word written.")
	timeout     = flag.Duration("timeout", time.Minute, "Maximum duration of the command.")
)

func main() {
	flag.Usage = usage
	flag.Parse()
	defer glog.Flush()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	board := config.Default()
	if *boardFile != "" {
		var err error
		if board, err = config.Load(*boardFile); err != nil {
			glog.Exitf("Failed to load board: %v", err)
		}
	}
	if *libraryFile != "" {
		board.Library = *libraryFile
	}
	if *metricsFile != "" {
		board.MetricsFile = *metricsFile
	}

	reg := prometheus.NewRegistry()
	d, err := newDownloader(board, reg)
	if err != nil {
		glog.Exitf("Failed to set up downloader: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := d.Init(); err != nil {
		glog.Exitf("Failed to initialize: %v", err)
	}
	cmdErr := run(ctx, d, flag.Args())
	if err := d.Uninit(); err != nil {
		glog.Errorf("Uninit: %v", err)
	}

	if board.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(board.MetricsFile, reg); err != nil {
			glog.Errorf("Failed to write metrics: %v", err)
		}
	}
	if cmdErr != nil {
		glog.Exitf("%s: %v", flag.Arg(0), cmdErr)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <command> [args]\n\n", os.Args[0])
	fmt.Fprintln(flag.CommandLine.Output(), "Commands: list, latest, download, start-image, reset, start, stop, stats")
	flag.PrintDefaults()
}

func newDownloader(board *config.Board, reg prometheus.Registerer) (*downloader.Downloader, error) {
	opts := []downloader.Option{
		downloader.WithLogger(downloader.GlogLogger{}),
		downloader.WithRegistry(reg),
		downloader.WithExecPolls(board.Polls.Exec),
		downloader.WithStatusPolls(board.Polls.Status),
		downloader.WithFIFOPolls(board.Polls.FIFO),
		downloader.WithProgressCallback(func(p downloader.Progress) {
			glog.V(1).Infof("%s: %s %.0f%% (%s)", p.Engine, p.Phase, p.Percentage, p.ElapsedTime)
		}),
	}

	if board.Device != "" {
		dev, err := board.DeviceType()
		if err != nil {
			return nil, err
		}
		opts = append(opts, downloader.WithDeviceType(dev))
	}
	layouts, err := board.Layouts()
	if err != nil {
		return nil, err
	}
	for id, l := range layouts {
		opts = append(opts, downloader.WithLayout(id, l))
	}

	// A missing library only matters to the commands that need images.
	if board.Library != "" {
		lib, err := imagelib.Parse(board.Library)
		if err != nil {
			glog.Warningf("Image library not loaded: %v", err)
		} else {
			opts = append(opts, downloader.WithLibrary(lib))
		}
	}

	features := &regbus.FeatureRegister{Addr: board.FeatureAddr, Product: board.ProductID}
	return downloader.New(regbus.NewDevMem(board.DevMem), features, opts...), nil
}

func run(ctx context.Context, d *downloader.Downloader, args []string) error {
	cmd, args := args[0], args[1:]
	switch cmd {
	case "list":
		return list(d)
	case "latest":
		id, err := parseImageID(args, 2)
		if err != nil {
			return err
		}
		if err := d.LatestImage(&id); err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	case "download":
		id, err := parseImageID(args, 4)
		if err != nil {
			return err
		}
		return d.Download(ctx, id, !*noVerify)
	case "start-image":
		if len(args) != 1 {
			return fmt.Errorf("want a packed image id")
		}
		packed, err := strconv.ParseUint(args[0], 0, 32)
		if err != nil {
			return fmt.Errorf("packed image id: %w", err)
		}
		return d.InitAndStart(ctx, uint32(packed))
	case "reset", "start", "stop":
		if len(args) != 1 {
			return fmt.Errorf("want an engine name")
		}
		id, err := config.ParseEngine(args[0])
		if err != nil {
			return err
		}
		switch cmd {
		case "reset":
			return d.StopAndReset(ctx, id)
		case "start":
			return d.ExecutionStart(ctx, id)
		default:
			return d.ExecutionStop(ctx, id)
		}
	case "stats":
		d.StatsShow(os.Stdout)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func list(d *downloader.Downloader) error {
	n, err := d.AvailableImagesCount()
	if err != nil {
		return err
	}
	ids := make([]imagelib.ImageID, n)
	if _, err := d.AvailableImages(ids); err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Printf("0x%08X  %s\n", id.Pack(), id)
	}
	return nil
}

// parseImageID reads an engine name followed by n-1 numeric id fields:
// functionality, then optionally major and minor.
func parseImageID(args []string, n int) (imagelib.ImageID, error) {
	if len(args) != n {
		return imagelib.ImageID{}, fmt.Errorf("want %d arguments, got %d", n, len(args))
	}
	engine, err := config.ParseEngine(args[0])
	if err != nil {
		return imagelib.ImageID{}, err
	}
	id := imagelib.ImageID{Engine: engine}

	fields := []*uint8{&id.Functionality, &id.Major, &id.Minor}
	for i, s := range args[1:] {
		v, err := strconv.ParseUint(s, 0, 8)
		if err != nil {
			return imagelib.ImageID{}, fmt.Errorf("argument %d: %w", i+2, err)
		}
		*fields[i] = uint8(v)
	}
	return id, nil
}
