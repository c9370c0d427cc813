package classification

import "time"

const (
	DefaultIterations = 10
	DefaultTopN       = 10
	DefaultTimeout    = 60 * time.Second
	DefaultInputSize  = 224
	DefaultScale      = 1.0 / 255.0
)
