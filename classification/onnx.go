package classification

import (
	"fmt"
	"strconv"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXConfig configures an ONNXBackend. The ONNX Runtime environment must be
// initialized before NewONNXBackend is called.
type ONNXConfig struct {
	ModelPath       string
	Device          Device
	ProviderOptions map[string]string
	IntraOpThreads  int
	InterOpThreads  int
}

// ONNXBackend runs a single-input, single-output classification model
// through ONNX Runtime.
type ONNXBackend struct {
	modelPath  string
	spec       InputSpec
	outputName string
	outputDims ort.Shape
	options    *ort.SessionOptions

	mu       sync.Mutex
	requests []*ONNXRequest
}

func NewONNXBackend(cfg ONNXConfig) (*ONNXBackend, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, &ConfigError{Message: "reading model " + cfg.ModelPath, Cause: err}
	}
	if len(inputs) != 1 {
		return nil, configErrorf("sample supports topologies with 1 input only, model has %d", len(inputs))
	}
	if len(outputs) != 1 {
		return nil, configErrorf("sample supports topologies with 1 output only, model has %d", len(outputs))
	}

	spec, err := inputSpecFromInfo(inputs[0])
	if err != nil {
		return nil, err
	}
	if outputs[0].DataType != ort.TensorElementDataTypeFloat {
		return nil, fmt.Errorf("output %q has element type %v: %w", outputs[0].Name, outputs[0].DataType, ErrBackendTypeMismatch)
	}
	outDims := outputs[0].Dimensions
	if len(outDims) < 2 {
		return nil, configErrorf("output %q has rank %d, want at least 2", outputs[0].Name, len(outDims))
	}
	for _, d := range outDims[1:] {
		if d <= 0 {
			return nil, configErrorf("output %q has dynamic class dimension %v", outputs[0].Name, outDims)
		}
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}
	if cfg.IntraOpThreads > 0 {
		if err := options.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
			options.Destroy()
			return nil, fmt.Errorf("set intra-op threads: %w", err)
		}
	}
	if cfg.InterOpThreads > 0 {
		if err := options.SetInterOpNumThreads(cfg.InterOpThreads); err != nil {
			options.Destroy()
			return nil, fmt.Errorf("set inter-op threads: %w", err)
		}
	}
	if err := appendProvider(options, cfg.Device, cfg.ProviderOptions); err != nil {
		options.Destroy()
		return nil, err
	}

	return &ONNXBackend{
		modelPath:  cfg.ModelPath,
		spec:       spec,
		outputName: outputs[0].Name,
		outputDims: outDims,
		options:    options,
	}, nil
}

func inputSpecFromInfo(info ort.InputOutputInfo) (InputSpec, error) {
	dims := info.Dimensions
	if len(dims) != 4 {
		return InputSpec{}, configErrorf("input %q has shape %v, want NCHW", info.Name, dims)
	}
	if dims[1] <= 0 {
		return InputSpec{}, configErrorf("input %q has a dynamic channel dimension", info.Name)
	}
	spec := InputSpec{
		Name:     info.Name,
		Batch:    positive(dims[0]),
		Channels: int(dims[1]),
		Height:   positive(dims[2]),
		Width:    positive(dims[3]),
	}
	switch info.DataType {
	case ort.TensorElementDataTypeUint8:
		spec.Kind = ElementUint8
	case ort.TensorElementDataTypeFloat:
		spec.Kind = ElementFloat32
	default:
		return InputSpec{}, fmt.Errorf("input %q has element type %v: %w", info.Name, info.DataType, ErrBackendTypeMismatch)
	}
	return spec, nil
}

func positive(d int64) int {
	if d <= 0 {
		return 0
	}
	return int(d)
}

func appendProvider(options *ort.SessionOptions, d Device, extra map[string]string) error {
	switch d.Kind {
	case DeviceCPU:
		return nil
	case DeviceCUDA:
		cudaOptions, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return fmt.Errorf("error creating CUDA provider options: %w", err)
		}
		defer cudaOptions.Destroy()

		settings := map[string]string{"device_id": strconv.Itoa(d.ID)}
		for k, v := range extra {
			settings[k] = v
		}
		if err := cudaOptions.Update(settings); err != nil {
			return &ConfigError{Message: "invalid CUDA provider options", Cause: err}
		}
		if err := options.AppendExecutionProviderCUDA(cudaOptions); err != nil {
			return fmt.Errorf("enable CUDA provider: %w", err)
		}
	case DeviceOpenVINO:
		settings := make(map[string]string, len(extra)+1)
		for k, v := range extra {
			settings[k] = v
		}
		if d.Target != "" {
			settings["device_type"] = d.Target
		}
		if err := options.AppendExecutionProviderOpenVINO(settings); err != nil {
			return fmt.Errorf("enable OpenVINO provider: %w", err)
		}
	case DeviceCoreML:
		if err := options.AppendExecutionProviderCoreML(0); err != nil {
			return fmt.Errorf("enable CoreML provider: %w", err)
		}
	case DeviceDirectML:
		if err := options.AppendExecutionProviderDirectML(d.ID); err != nil {
			return fmt.Errorf("enable DirectML provider: %w", err)
		}
	default:
		return configErrorf("device %s is not served by ONNX Runtime", d)
	}
	return nil
}

func (b *ONNXBackend) Name() string { return "onnxruntime" }
func (b *ONNXBackend) InputSpec() InputSpec { return b.spec }

func (b *ONNXBackend) CreateRequest(spec InputSpec, batch int) (Request, error) {
	if batch < 1 {
		return nil, ErrNoValidInput
	}
	if b.spec.Batch > 0 && b.spec.Batch != batch {
		return nil, configErrorf("model has a fixed batch of %d, got %d images", b.spec.Batch, batch)
	}
	if spec.Height <= 0 || spec.Width <= 0 {
		return nil, configErrorf("input size %dx%d is not resolved", spec.Width, spec.Height)
	}

	inputShape := ort.NewShape(int64(batch), int64(spec.Channels), int64(spec.Height), int64(spec.Width))
	outputShape := make(ort.Shape, len(b.outputDims))
	copy(outputShape, b.outputDims)
	outputShape[0] = int64(batch)

	var input ort.Value
	var err error
	switch spec.Kind {
	case ElementUint8:
		input, err = ort.NewEmptyTensor[uint8](inputShape)
	case ElementFloat32:
		input, err = ort.NewEmptyTensor[float32](inputShape)
	default:
		return nil, fmt.Errorf("input element kind %v: %w", spec.Kind, ErrBackendTypeMismatch)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		b.modelPath,
		[]string{spec.Name},
		[]string{b.outputName},
		[]ort.Value{input},
		[]ort.Value{output},
		b.options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	req := &ONNXRequest{session: session, input: input, output: output}
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()
	return req, nil
}

// Close destroys every request created by b and the session options. It
// blocks until runs still in progress have returned.
func (b *ONNXBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.requests {
		r.Destroy()
	}
	b.requests = nil
	if b.options != nil {
		b.options.Destroy()
		b.options = nil
	}
	return nil
}

// sessionRunner is the part of *ort.AdvancedSession a request drives.
type sessionRunner interface {
	Run() error
	Destroy() error
}

// ONNXRequest runs its session on a new goroutine for every StartAsync.
type ONNXRequest struct {
	session sessionRunner
	input   ort.Value
	output  *ort.Tensor[float32]

	mu       sync.Mutex
	callback func(error)
	running  bool
	closed   bool
	runs     sync.WaitGroup
}

func (r *ONNXRequest) SetCompletionCallback(cb func(error)) {
	r.mu.Lock()
	r.callback = cb
	r.mu.Unlock()
}

func (r *ONNXRequest) Input() any { return r.input }
func (r *ONNXRequest) Output() any { return r.output }

func (r *ONNXRequest) StartAsync() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRequestClosed
	}
	if r.running {
		r.mu.Unlock()
		return ErrRequestBusy
	}
	r.running = true
	r.runs.Add(1)
	cb := r.callback
	r.mu.Unlock()

	go func() {
		err := r.session.Run()
		if err != nil {
			err = fmt.Errorf("model inference: %w", err)
		}

		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		r.runs.Done()
		if cb != nil {
			cb(err)
		}
	}()
	return nil
}

// Destroy rejects further submissions, waits for a run in progress to
// return and then frees the session and its tensors.
func (r *ONNXRequest) Destroy() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.runs.Wait()

	if r.session != nil {
		r.session.Destroy()
	}
	if r.input != nil {
		r.input.Destroy()
	}
	if r.output != nil {
		r.output.Destroy()
	}
}
