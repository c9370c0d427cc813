package images

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Tutortoise/classification-async/classification"
	"github.com/Tutortoise/classification-async/models"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ChannelOrder is the byte order of a 3-channel pixel.
type ChannelOrder int

const (
	RGB ChannelOrder = iota
	BGR
)

func ParseChannelOrder(s string) (ChannelOrder, error) {
	switch strings.ToLower(s) {
	case "rgb":
		return RGB, nil
	case "bgr":
		return BGR, nil
	default:
		return RGB, fmt.Errorf("unknown channel order %q, want rgb or bgr", s)
	}
}

// Spec is the decode target shared by every image in a batch.
type Spec struct {
	Width    int
	Height   int
	Channels int
	Order    ChannelOrder
}

// ExpandInputs resolves path to the list of files to classify. A directory
// contributes its regular, non-hidden files in lexical order.
func ExpandInputs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// LoadBatch decodes every path to spec. Files that cannot be decoded are
// logged and skipped; the returned slice keeps the order of paths. If no
// file decodes, LoadBatch returns classification.ErrNoValidInput.
func LoadBatch(paths []string, spec Spec) ([]models.ImageSample, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("invalid decode size %dx%d", spec.Width, spec.Height)
	}
	if spec.Channels != 1 && spec.Channels != 3 {
		return nil, fmt.Errorf("unsupported channel count %d, want 1 or 3", spec.Channels)
	}

	samples := make([]models.ImageSample, 0, len(paths))
	for _, p := range paths {
		img, err := imaging.Open(p, imaging.AutoOrientation(true))
		if err != nil {
			log.Printf("[WARN] Image %s cannot be read!", p)
			continue
		}
		samples = append(samples, models.ImageSample{
			Path:     p,
			Width:    spec.Width,
			Height:   spec.Height,
			Channels: spec.Channels,
			Pix:      Interleave(img, spec),
		})
	}
	if len(samples) == 0 {
		return nil, classification.ErrNoValidInput
	}
	return samples, nil
}

// Interleave resizes img to spec and returns its pixels in pixel-major order.
func Interleave(img image.Image, spec Spec) []byte {
	var resized *image.NRGBA
	if spec.Channels == 1 {
		resized = imaging.Grayscale(imaging.Resize(img, spec.Width, spec.Height, imaging.Linear))
	} else {
		resized = imaging.Resize(img, spec.Width, spec.Height, imaging.Linear)
	}

	out := make([]byte, spec.Width*spec.Height*spec.Channels)
	i := 0
	for y := 0; y < spec.Height; y++ {
		row := resized.Pix[y*resized.Stride : y*resized.Stride+spec.Width*4]
		for x := 0; x < spec.Width; x++ {
			px := row[x*4 : x*4+3]
			switch {
			case spec.Channels == 1:
				out[i] = px[0]
			case spec.Order == BGR:
				out[i], out[i+1], out[i+2] = px[2], px[1], px[0]
			default:
				out[i], out[i+1], out[i+2] = px[0], px[1], px[2]
			}
			i += spec.Channels
		}
	}
	return out
}
