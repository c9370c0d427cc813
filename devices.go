package main

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/Tutortoise/classification-async/classification"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sys/cpu"
)

// cpuFeatures lists the SIMD extensions relevant to inference kernels.
func cpuFeatures() []string {
	var features []string
	switch runtime.GOARCH {
	case "amd64", "386":
		for _, f := range []struct {
			name string
			ok   bool
		}{
			{"SSE4.1", cpu.X86.HasSSE41},
			{"AVX2", cpu.X86.HasAVX2},
			{"FMA", cpu.X86.HasFMA},
			{"AVX512F", cpu.X86.HasAVX512F},
			{"AVX512VNNI", cpu.X86.HasAVX512VNNI},
		} {
			if f.ok {
				features = append(features, f.name)
			}
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			features = append(features, "ASIMD")
		}
		if cpu.ARM64.HasASIMDDP {
			features = append(features, "ASIMDDP")
		}
	}
	return features
}

// physicalCores is used for the intra-op thread count.
func physicalCores() int {
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

func showAvailableDevices(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Available target devices:")
	brand := cpuid.CPU.BrandName
	if brand == "" {
		brand = runtime.GOARCH
	}
	features := cpuFeatures()
	if len(features) == 0 {
		features = []string{"none detected"}
	}
	fmt.Fprintf(w, "    CPU: %s (%d physical / %d logical cores, %s)\n",
		brand, physicalCores(), runtime.NumCPU(), strings.Join(features, " "))
	fmt.Fprintf(w, "    Device names: %s\n", strings.Join(classification.SupportedDevices, " "))
	fmt.Fprintln(w, "    GPU and accelerator devices are available when the ONNX Runtime library was built with the matching execution provider.")
}
