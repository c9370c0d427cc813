package main

const (
	helpMessage           = "Print a usage message."
	imageMessage          = "Required. Path to a folder with images or path to an image file."
	modelMessage          = "Required. Path to an .onnx file with a trained model."
	labelMessage          = "Required. Path to a .txt file with one class label per line."
	deviceMessage         = "Optional. Specify the target device to infer on (the list of available devices is shown below). Default value is CPU."
	ntopMessage           = "Optional. Number of top results. Default value is 10."
	gpuConfigMessage      = "Required for GPU provider tuning. Path to a key=value file with execution provider options."
	cpuLibraryMessage     = "Optional. Absolute path to the ONNX Runtime shared library providing the CPU kernels. Defaults to $ONNXRUNTIME_LIB."
	iterationsMessage     = "Optional. Number of asynchronous inference executions. Default value is 10."
	timeoutMessage        = "Optional. Deadline for all executions, 0 disables it. Default value is 60s or $CLASSIFY_TIMEOUT."
	orderMessage          = "Optional. Channel order of 3-channel inputs, rgb or bgr. Default value is rgb."
	scaleMessage          = "Optional. Multiplier applied to pixel bytes for float inputs. Default value is 1/255."
	widthMessage          = "Optional. Decode width used when the model input width is dynamic. Default value is 224."
	heightMessage         = "Optional. Decode height used when the model input height is dynamic. Default value is 224."
	metricsAddressMessage = "Optional. Address to serve /metrics and /results on while running, e.g. 127.0.0.1:8080."
)
