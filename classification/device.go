package classification

import (
	"strconv"
	"strings"
)

// DeviceKind selects the execution provider a model is loaded onto.
type DeviceKind int

const (
	DeviceCPU DeviceKind = iota
	DeviceCUDA
	DeviceOpenVINO
	DeviceCoreML
	DeviceDirectML
	DeviceSimulation
)

// Device is a parsed -device value such as "CPU", "CUDA:1" or "OPENVINO:GPU".
type Device struct {
	Kind DeviceKind
	ID   int
	// Target is the OpenVINO device_type, e.g. "CPU" or "GPU".
	Target string
}

// SupportedDevices lists the device names accepted by ParseDevice.
var SupportedDevices = []string{"CPU", "CUDA[:id]", "GPU[:id]", "OPENVINO[:device_type]", "COREML", "DIRECTML[:id]", "SIMULATION"}

func ParseDevice(name string) (Device, error) {
	kind, arg, hasArg := strings.Cut(strings.TrimSpace(name), ":")
	var d Device
	switch strings.ToUpper(kind) {
	case "CPU":
		d.Kind = DeviceCPU
	case "CUDA", "GPU":
		d.Kind = DeviceCUDA
	case "OPENVINO":
		d.Kind = DeviceOpenVINO
		d.Target = strings.ToUpper(arg)
		return d, nil
	case "COREML":
		d.Kind = DeviceCoreML
	case "DIRECTML":
		d.Kind = DeviceDirectML
	case "SIMULATION", "SIM":
		d.Kind = DeviceSimulation
	default:
		return d, configErrorf("unknown device %q (supported: %s)", name, strings.Join(SupportedDevices, ", "))
	}
	if hasArg {
		if d.Kind != DeviceCUDA && d.Kind != DeviceDirectML {
			return d, configErrorf("device %q does not take an index", name)
		}
		id, err := strconv.Atoi(arg)
		if err != nil || id < 0 {
			return d, configErrorf("invalid device index in %q", name)
		}
		d.ID = id
	}
	return d, nil
}

func (d Device) String() string {
	switch d.Kind {
	case DeviceCPU:
		return "CPU"
	case DeviceCUDA:
		return "CUDA:" + strconv.Itoa(d.ID)
	case DeviceOpenVINO:
		if d.Target == "" {
			return "OPENVINO"
		}
		return "OPENVINO:" + d.Target
	case DeviceCoreML:
		return "COREML"
	case DeviceDirectML:
		return "DIRECTML:" + strconv.Itoa(d.ID)
	case DeviceSimulation:
		return "SIMULATION"
	default:
		return "unknown"
	}
}
