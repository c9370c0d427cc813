package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/Tutortoise/classification-async/classification"
	"github.com/Tutortoise/classification-async/images"
	"github.com/Tutortoise/classification-async/models"
)

var (
	debugMode bool
)

func init() {
	debugMode = os.Getenv("DEBUG") == "true"
}

func logTimings(t *models.ProcessingTimings) {
	if debugMode {
		log.Printf("[DEBUG] RunID: %s - Processing times:\n"+
			"\tImage Decode: %v\n"+
			"\tModel Load:   %v\n"+
			"\tPreprocess:   %v\n"+
			"\tInference:    %v\n"+
			"\tPostprocess:  %v\n"+
			"\tTotal:        %v",
			t.RunID,
			t.ImageDecode,
			t.Load,
			t.Preprocess,
			t.Inference,
			t.Postprocess,
			t.Total)
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	log.Printf("[INFO] Parsing input parameters")
	cfg, err := parseConfig(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return 1
	}
	if cfg.Help {
		showUsage(newFlagSet(stdout))
		showAvailableDevices(stdout)
		return 0
	}

	if err := classify(cfg, stdout); err != nil {
		log.Printf("[ERROR] %v", err)
		return 1
	}
	log.Printf("[INFO] Execution successful")
	return 0
}

func classify(cfg *Config, stdout io.Writer) error {
	startTotal := time.Now()
	timings := &models.ProcessingTimings{RunID: fmt.Sprintf("%d", startTotal.UnixNano())}

	paths, err := images.ExpandInputs(cfg.Input)
	if err != nil {
		return &classification.ConfigError{Message: "No suitable images were found", Cause: err}
	}
	if len(paths) == 0 {
		return &classification.ConfigError{Message: "No suitable images were found"}
	}

	log.Printf("[INFO] Creating inference backend for device %s", cfg.Device)
	backend, cleanup, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	spec := resolveInputSpec(backend.InputSpec(), cfg)
	log.Printf("[INFO] Preparing input blobs: %s %s %dx%dx%d", spec.Name, spec.Kind, spec.Channels, spec.Height, spec.Width)

	decodeStart := time.Now()
	samples, err := images.LoadBatch(paths, images.Spec{
		Width:    spec.Width,
		Height:   spec.Height,
		Channels: spec.Channels,
		Order:    cfg.Order,
	})
	timings.ImageDecode = time.Since(decodeStart)
	if err != nil {
		return err
	}
	log.Printf("[INFO] Batch size is %d", len(samples))

	log.Printf("[INFO] Loading model to the device")
	loadStart := time.Now()
	req, err := backend.CreateRequest(spec, len(samples))
	if err != nil {
		return err
	}
	timings.Load = time.Since(loadStart)

	prepStart := time.Now()
	if err := classification.FillInput(req, samples, cfg.Scale); err != nil {
		return err
	}
	timings.Preprocess = time.Since(prepStart)

	loop := classification.NewAsyncLoop(req, cfg.Iterations)
	monitor := &Monitor{}
	monitor.setLoop(loop, cfg.Device.String(), len(samples))
	if cfg.MetricsAddr != "" {
		stop := startMonitor(cfg.MetricsAddr, monitor)
		defer stop()
	}

	ctx := context.Background()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	inferStart := time.Now()
	if err := loop.Run(ctx); err != nil {
		return fmt.Errorf("async inference: %w", err)
	}
	timings.Inference = time.Since(inferStart)

	log.Printf("[INFO] Processing output blobs")
	postStart := time.Now()
	scores, err := classification.OutputScores(req)
	if err != nil {
		return err
	}
	resultsCount := len(scores) / len(samples)
	if resultsCount == 0 {
		return fmt.Errorf("output holds %d scores for %d images", len(scores), len(samples))
	}
	ntop := classification.ClampTopN(cfg.NTop, resultsCount)

	labels, err := classification.ReadLabels(cfg.Labels)
	if err != nil {
		log.Printf("[WARN] %v, printing results without labels", err)
	}

	names := make([]string, len(samples))
	for i := range samples {
		names[i] = samples[i].Path
	}
	results := classification.Classify(scores, len(samples), ntop, labels, names)
	timings.Postprocess = time.Since(postStart)
	monitor.setResults(results)

	if err := classification.PrintResults(stdout, results, ntop); err != nil {
		return fmt.Errorf("print results: %w", err)
	}

	timings.Total = time.Since(startTotal)
	logTimings(timings)
	return nil
}
