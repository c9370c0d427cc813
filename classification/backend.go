package classification

// ElementKind is the element type of a backend's input tensor.
type ElementKind int

const (
	ElementUint8 ElementKind = iota
	ElementFloat32
)

func (k ElementKind) String() string {
	switch k {
	case ElementUint8:
		return "U8"
	case ElementFloat32:
		return "FP32"
	default:
		return "unknown"
	}
}

// InputSpec describes the single input of a loaded model. A Batch of 0 means
// the batch dimension is dynamic; a Height or Width of 0 means the spatial
// size is dynamic and the caller picks one.
type InputSpec struct {
	Name     string
	Batch    int
	Channels int
	Height   int
	Width    int
	Kind     ElementKind
}

// Backend loads a model onto a device and hands out inference requests.
type Backend interface {
	Name() string
	InputSpec() InputSpec
	// CreateRequest binds the model to a batch of the given size. The input
	// spec's Height and Width must be resolved (non-zero) by then.
	CreateRequest(spec InputSpec, batch int) (Request, error)
	Close() error
}

// Request is a single reusable inference request.
//
// Implementations must invoke the completion callback exactly once per
// successful StartAsync, and never for a request that is not in flight.
// Callbacks for successive submissions must not overlap. The callback may run
// on any goroutine, and StartAsync may be called from inside it.
type Request interface {
	SetCompletionCallback(func(error))
	StartAsync() error
	Input() any
	Output() any
}
