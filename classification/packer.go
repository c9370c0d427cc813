package classification

import (
	"fmt"
	"sync"

	"github.com/Tutortoise/classification-async/models"

	ort "github.com/yalue/onnxruntime_go"
)

// PackPlanar copies interleaved samples into dst in [image][channel][pixel]
// order. dst must hold exactly len(samples)*C*H*W bytes and every sample must
// share the same dimensions; anything else is a programming error and panics.
func PackPlanar(samples []models.ImageSample, dst []byte) {
	packPlanar(samples, dst, func(v byte) byte { return v })
}

// PackPlanarFloat is PackPlanar for float tensors, multiplying each byte by scale.
func PackPlanarFloat(samples []models.ImageSample, dst []float32, scale float32) {
	packPlanar(samples, dst, func(v byte) float32 { return float32(v) * scale })
}

// PlanarSize returns the element count of the packed tensor for samples.
func PlanarSize(samples []models.ImageSample) int {
	if len(samples) == 0 {
		return 0
	}
	s := samples[0]
	return len(samples) * s.Channels * s.PixelCount()
}

func packPlanar[T uint8 | float32](samples []models.ImageSample, dst []T, convert func(byte) T) {
	if len(samples) == 0 {
		panic("classification: packing an empty batch")
	}
	channels := samples[0].Channels
	imageSize := samples[0].PixelCount()
	for i := range samples {
		s := &samples[i]
		if s.Channels != channels || s.PixelCount() != imageSize || len(s.Pix) != channels*imageSize {
			panic(fmt.Sprintf("classification: sample %s has shape %dx%dx%d (%d bytes), want %d channels x %d pixels",
				s.Path, s.Channels, s.Height, s.Width, len(s.Pix), channels, imageSize))
		}
	}
	if want := len(samples) * channels * imageSize; len(dst) != want {
		panic(fmt.Sprintf("classification: input tensor holds %d elements, want %d", len(dst), want))
	}

	// Each goroutine owns one planar region of dst.
	var wg sync.WaitGroup
	wg.Add(len(samples) * channels)
	for img := range samples {
		src := samples[img].Pix
		for ch := 0; ch < channels; ch++ {
			go func(img, ch int) {
				defer wg.Done()
				plane := dst[img*channels*imageSize+ch*imageSize : img*channels*imageSize+(ch+1)*imageSize]
				for pid := range plane {
					plane[pid] = convert(src[pid*channels+ch])
				}
			}(img, ch)
		}
	}
	wg.Wait()
}

// FillInput packs samples into the request's input blob.
func FillInput(req Request, samples []models.ImageSample, scale float32) error {
	if len(samples) == 0 {
		return ErrNoValidInput
	}
	switch blob := req.Input().(type) {
	case []byte:
		PackPlanar(samples, blob)
	case []float32:
		PackPlanarFloat(samples, blob, scale)
	case *ort.Tensor[uint8]:
		PackPlanar(samples, blob.GetData())
	case *ort.Tensor[float32]:
		PackPlanarFloat(samples, blob.GetData(), scale)
	default:
		return fmt.Errorf("input blob %T: %w", blob, ErrBackendTypeMismatch)
	}
	return nil
}

// OutputScores returns the request's output blob as float scores.
func OutputScores(req Request) ([]float32, error) {
	switch blob := req.Output().(type) {
	case []float32:
		return blob, nil
	case *ort.Tensor[float32]:
		return blob.GetData(), nil
	default:
		return nil, fmt.Errorf("output blob %T: %w", blob, ErrBackendTypeMismatch)
	}
}
