package main

import (
	"fmt"
	"log"

	"github.com/Tutortoise/classification-async/classification"

	ort "github.com/yalue/onnxruntime_go"
)

// simulatedResults is the class count of the SIMULATION device.
const simulatedResults = 1000

// openBackend loads cfg.Model on cfg.Device. The returned cleanup releases
// the backend and, for ONNX Runtime, the runtime environment.
func openBackend(cfg *Config) (classification.Backend, func(), error) {
	if cfg.Device.Kind == classification.DeviceSimulation {
		spec := classification.InputSpec{
			Name:     "input",
			Channels: 3,
			Height:   cfg.Height,
			Width:    cfg.Width,
			Kind:     classification.ElementUint8,
		}
		b := classification.NewSimulatedBackend(spec, simulatedResults, 0)
		return b, func() { b.Close() }, nil
	}

	providerOptions, err := readProviderOptions(cfg.GPUConfig)
	if err != nil {
		return nil, nil, err
	}
	if cfg.GPUConfig != "" {
		log.Printf("[INFO] GPU provider options loaded: %s", cfg.GPUConfig)
	}

	ort.SetSharedLibraryPath(cfg.CPULibrary)
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize ONNX environment from %s: %w", cfg.CPULibrary, err)
	}
	log.Printf("[INFO] ONNX Runtime loaded: %s", cfg.CPULibrary)

	b, err := classification.NewONNXBackend(classification.ONNXConfig{
		ModelPath:       cfg.Model,
		Device:          cfg.Device,
		ProviderOptions: providerOptions,
		IntraOpThreads:  physicalCores(),
		InterOpThreads:  1,
	})
	if err != nil {
		ort.DestroyEnvironment()
		return nil, nil, err
	}
	cleanup := func() {
		b.Close()
		if err := ort.DestroyEnvironment(); err != nil {
			log.Printf("[WARN] destroying ONNX environment: %v", err)
		}
	}
	return b, cleanup, nil
}

// resolveInputSpec fills dynamic spatial dimensions from the config.
func resolveInputSpec(spec classification.InputSpec, cfg *Config) classification.InputSpec {
	if spec.Height == 0 {
		spec.Height = cfg.Height
	}
	if spec.Width == 0 {
		spec.Width = cfg.Width
	}
	return spec
}
