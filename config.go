package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/Tutortoise/classification-async/classification"
	"github.com/Tutortoise/classification-async/images"
)

// Config holds every command line option. It is built once by parseConfig
// and never modified afterwards.
type Config struct {
	Help bool

	Input  string
	Model  string
	Labels string
	Device classification.Device
	NTop   int

	CPULibrary string
	GPUConfig  string

	Iterations  int
	Timeout     time.Duration
	Order       images.ChannelOrder
	Scale       float32
	Width       int
	Height      int
	MetricsAddr string
}

func newFlagSet(output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("classification_async", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Bool("h", false, helpMessage)
	fs.String("i", "", imageMessage)
	fs.String("model", "", modelMessage)
	fs.String("labels", "", labelMessage)
	fs.String("device", "CPU", deviceMessage)
	fs.Uint("ntop", classification.DefaultTopN, ntopMessage)
	fs.String("l", envStr("ONNXRUNTIME_LIB", defaultLibraryName()), cpuLibraryMessage)
	fs.String("c", "", gpuConfigMessage)
	fs.Int("niter", classification.DefaultIterations, iterationsMessage)
	fs.Duration("timeout", envDuration("CLASSIFY_TIMEOUT", classification.DefaultTimeout), timeoutMessage)
	fs.String("order", "rgb", orderMessage)
	fs.Float64("scale", classification.DefaultScale, scaleMessage)
	fs.Int("width", classification.DefaultInputSize, widthMessage)
	fs.Int("height", classification.DefaultInputSize, heightMessage)
	fs.String("metrics", "", metricsAddressMessage)
	fs.Usage = func() { showUsage(fs) }
	return fs
}

// parseConfig parses args (without the program name). When -h is given the
// returned Config has Help set and nothing else is validated.
func parseConfig(args []string, output io.Writer) (*Config, error) {
	fs := newFlagSet(output)
	if err := fs.Parse(args); err != nil {
		return nil, &classification.ConfigError{Message: "invalid command line", Cause: err}
	}
	if fs.NArg() > 0 {
		return nil, &classification.ConfigError{Message: fmt.Sprintf("unexpected arguments: %s", strings.Join(fs.Args(), " "))}
	}

	get := func(name string) flag.Getter { return fs.Lookup(name).Value.(flag.Getter) }
	cfg := &Config{
		Help:        get("h").Get().(bool),
		Input:       get("i").String(),
		Model:       get("model").String(),
		Labels:      get("labels").String(),
		CPULibrary:  get("l").String(),
		GPUConfig:   get("c").String(),
		Iterations:  get("niter").Get().(int),
		Timeout:     get("timeout").Get().(time.Duration),
		Scale:       float32(get("scale").Get().(float64)),
		Width:       get("width").Get().(int),
		Height:      get("height").Get().(int),
		MetricsAddr: get("metrics").String(),
	}
	if cfg.Help {
		return cfg, nil
	}

	if cfg.Input == "" {
		return nil, &classification.ConfigError{Message: "Parameter -i is not set"}
	}
	if cfg.Model == "" {
		return nil, &classification.ConfigError{Message: "Parameter -model is not set"}
	}
	if cfg.Labels == "" {
		return nil, &classification.ConfigError{Message: "Parameter -labels is not set"}
	}

	device, err := classification.ParseDevice(get("device").String())
	if err != nil {
		return nil, err
	}
	cfg.Device = device

	// Clamped against the model's result count once it is known.
	ntop := get("ntop").Get().(uint)
	if ntop > math.MaxInt32 {
		ntop = math.MaxInt32
	}
	cfg.NTop = int(ntop)

	order, err := images.ParseChannelOrder(get("order").String())
	if err != nil {
		return nil, &classification.ConfigError{Message: "Parameter -order", Cause: err}
	}
	cfg.Order = order

	switch {
	case cfg.Iterations < 1:
		return nil, &classification.ConfigError{Message: fmt.Sprintf("Parameter -niter must be at least 1, got %d", cfg.Iterations)}
	case cfg.Timeout < 0:
		return nil, &classification.ConfigError{Message: fmt.Sprintf("Parameter -timeout must not be negative, got %v", cfg.Timeout)}
	case cfg.Width < 1 || cfg.Height < 1:
		return nil, &classification.ConfigError{Message: fmt.Sprintf("Parameters -width and -height must be positive, got %dx%d", cfg.Width, cfg.Height)}
	}
	return cfg, nil
}

func showUsage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "classification_async [OPTION]")
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w)
	rows := []struct{ flag, name string }{
		{"-h", "h"},
		{"-i <path>", "i"},
		{"-model <path>", "model"},
		{"-labels <path>", "labels"},
		{"  -l <absolute_path>", "l"},
		{"      Or", ""},
		{"  -c <absolute_path>", "c"},
		{"-device <device>", "device"},
		{"-ntop <integer>", "ntop"},
		{"-niter <integer>", "niter"},
		{"-timeout <duration>", "timeout"},
		{"-order <rgb|bgr>", "order"},
		{"-scale <float>", "scale"},
		{"-width <integer>", "width"},
		{"-height <integer>", "height"},
		{"-metrics <address>", "metrics"},
	}
	for _, r := range rows {
		usage := ""
		if f := fs.Lookup(r.name); f != nil {
			usage = f.Usage
		}
		fmt.Fprintf(w, "    %-24s%s\n", r.flag, usage)
	}
}

// readProviderOptions parses a key=value file. Blank lines and lines starting
// with # are skipped.
func readProviderOptions(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &classification.ConfigError{Message: "open provider options", Cause: err}
	}
	defer f.Close()

	opts := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, &classification.ConfigError{Message: fmt.Sprintf("%s:%d: expected key=value", path, n)}
		}
		opts[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, &classification.ConfigError{Message: "read provider options", Cause: err}
	}
	return opts, nil
}

func defaultLibraryName() string {
	switch runtime.GOOS {
	case "darwin":
		return "libonnxruntime.dylib"
	case "windows":
		return "onnxruntime.dll"
	default:
		return "libonnxruntime.so"
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
		log.Printf("[WARN] ignoring $%s=%q: %v, using %v", key, v, err, fallback)
	}
	return fallback
}
