package downloader

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/moffa90/go-npedl/npe"
)

var (
	downloadsDesc = prometheus.NewDesc(
		"npedl_downloads_total",
		"Image downloads by result.",
		[]string{"result"}, nil,
	)
	imageErrorsDesc = prometheus.NewDesc(
		"npedl_image_library_errors_total",
		"Image library failures by kind.",
		[]string{"kind"}, nil,
	)
	blocksDesc = prometheus.NewDesc(
		"npedl_engine_blocks_loaded_total",
		"Download map blocks loaded by block type.",
		[]string{"engine", "type"}, nil,
	)
	engineErrorsDesc = prometheus.NewDesc(
		"npedl_engine_critical_errors_total",
		"Critical load errors by kind.",
		[]string{"engine", "kind"}, nil,
	)
	commandsDesc = prometheus.NewDesc(
		"npedl_engine_commands_total",
		"Engine control commands completed.",
		[]string{"engine", "command"}, nil,
	)
	memWritesDesc = prometheus.NewDesc(
		"npedl_engine_memory_writes_total",
		"Engine memory word writes by memory and outcome.",
		[]string{"engine", "memory", "outcome"}, nil,
	)
	registerOpsDesc = prometheus.NewDesc(
		"npedl_engine_register_operations_total",
		"Indirect register operations by kind.",
		[]string{"engine", "op"}, nil,
	)
)

// Collector exports the statistics of a Downloader as Prometheus counters.
// Values are read on every scrape.
type Collector struct {
	d *Downloader
}

// NewCollector returns a Collector for d.
func NewCollector(d *Downloader) *Collector {
	return &Collector{d: d}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		downloadsDesc, imageErrorsDesc, blocksDesc, engineErrorsDesc,
		commandsDesc, memWritesDesc, registerOpsDesc,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.d.Stats()

	counter := func(desc *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v), labels...)
	}

	counter(downloadsDesc, s.AttemptedDownloads, "attempted")
	counter(downloadsDesc, s.SuccessfulDownloads, "successful")
	counter(downloadsDesc, s.CriticalFailDownloads, "critical_fail")

	counter(imageErrorsDesc, s.Images.InvalidSignature, "invalid_signature")
	counter(imageErrorsDesc, s.Images.ListOverflow, "list_overflow")
	counter(imageErrorsDesc, s.Images.NotFound, "not_found")

	for i, es := range s.Engines {
		id := npe.ID(i).String()

		counter(blocksDesc, es.InstructionBlocksLoaded, id, "instruction")
		counter(blocksDesc, es.DataBlocksLoaded, id, "data")
		counter(blocksDesc, es.StateInfoBlocksLoaded, id, "state")

		counter(engineErrorsDesc, es.CriticalEngineErrors, id, "engine")
		counter(engineErrorsDesc, es.CriticalMicrocodeErrors, id, "microcode")

		counter(commandsDesc, es.Starts, id, "start")
		counter(commandsDesc, es.Stops, id, "stop")
		counter(commandsDesc, es.Resets, id, "reset")

		counter(memWritesDesc, es.InsMemWrites, id, "instruction", "written")
		counter(memWritesDesc, es.InsMemWriteFails, id, "instruction", "verify_failed")
		counter(memWritesDesc, es.DataMemWrites, id, "data", "written")
		counter(memWritesDesc, es.DataMemWriteFails, id, "data", "verify_failed")

		counter(registerOpsDesc, es.ECSRegReads, id, "ecs_read")
		counter(registerOpsDesc, es.ECSRegWrites, id, "ecs_write")
		counter(registerOpsDesc, es.DebugInstructions, id, "debug_instruction")
		counter(registerOpsDesc, es.ContextRegWrites, id, "context_write")
		counter(registerOpsDesc, es.PhysicalRegWrites, id, "physical_write")
		counter(registerOpsDesc, es.NextPCWrites, id, "next_pc_write")
	}
}
