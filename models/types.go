package models

import "time"

// ImageSample is one decoded input image in interleaved (pixel-major) order.
type ImageSample struct {
	Path     string
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// PixelCount returns the number of pixels per channel.
func (s *ImageSample) PixelCount() int {
	return s.Width * s.Height
}

type Prediction struct {
	ClassID     int     `json:"class_id"`
	Probability float32 `json:"probability"`
	Label       string  `json:"label"`
}

type Classification struct {
	Image       string       `json:"image"`
	Predictions []Prediction `json:"predictions"`
}

type ProcessingTimings struct {
	RunID       string
	ImageDecode time.Duration
	Load        time.Duration
	Preprocess  time.Duration
	Inference   time.Duration
	Postprocess time.Duration
	Total       time.Duration
}
