package classification

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ort "github.com/yalue/onnxruntime_go"
)

// blockingSession holds Run until release is closed.
type blockingSession struct {
	release        chan struct{}
	finished       atomic.Bool
	destroyed      atomic.Bool
	destroyedEarly atomic.Bool
}

func (s *blockingSession) Run() error {
	<-s.release
	s.finished.Store(true)
	return nil
}

func (s *blockingSession) Destroy() error {
	if !s.finished.Load() {
		s.destroyedEarly.Store(true)
	}
	s.destroyed.Store(true)
	return nil
}

func TestONNXRequest_DestroyWaitsForRun(t *testing.T) {
	session := &blockingSession{release: make(chan struct{})}
	req := &ONNXRequest{session: session}
	completed := make(chan error, 1)
	req.SetCompletionCallback(func(err error) { completed <- err })

	require.NoError(t, req.StartAsync())

	destroyed := make(chan struct{})
	go func() {
		req.Destroy()
		close(destroyed)
	}()

	assert.Never(t, session.destroyed.Load, 30*time.Millisecond, 5*time.Millisecond)
	close(session.release)

	select {
	case <-destroyed:
	case <-time.After(time.Second):
		t.Fatal("Destroy did not return after the run finished")
	}
	require.NoError(t, <-completed)
	assert.True(t, session.destroyed.Load())
	assert.False(t, session.destroyedEarly.Load(), "session freed while Run was executing")
	assert.ErrorIs(t, req.StartAsync(), ErrRequestClosed)
}

func TestONNXRequest_DeadlineThenDestroy(t *testing.T) {
	session := &blockingSession{release: make(chan struct{})}
	req := &ONNXRequest{session: session}
	loop := NewAsyncLoop(req, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, loop.Run(ctx), context.DeadlineExceeded)

	time.AfterFunc(30*time.Millisecond, func() { close(session.release) })
	req.Destroy()

	assert.True(t, session.finished.Load())
	assert.False(t, session.destroyedEarly.Load())
	assert.Equal(t, 0, loop.Completed(), "completion after the deadline is ignored")
}

func TestONNXRequest_DestroyIdle(t *testing.T) {
	session := &blockingSession{release: make(chan struct{})}
	req := &ONNXRequest{session: session}

	req.Destroy()
	assert.True(t, session.destroyed.Load())
}

func TestInputSpecFromInfo(t *testing.T) {
	tests := []struct {
		name string
		info ort.InputOutputInfo
		want InputSpec
		err  error
	}{
		{
			name: "static u8",
			info: ort.InputOutputInfo{Name: "data", Dimensions: ort.NewShape(1, 3, 224, 224), DataType: ort.TensorElementDataTypeUint8},
			want: InputSpec{Name: "data", Batch: 1, Channels: 3, Height: 224, Width: 224, Kind: ElementUint8},
		},
		{
			name: "dynamic batch and size",
			info: ort.InputOutputInfo{Name: "images", Dimensions: ort.NewShape(-1, 3, -1, -1), DataType: ort.TensorElementDataTypeFloat},
			want: InputSpec{Name: "images", Channels: 3, Kind: ElementFloat32},
		},
		{
			name: "not NCHW",
			info: ort.InputOutputInfo{Name: "flat", Dimensions: ort.NewShape(1, 784), DataType: ort.TensorElementDataTypeFloat},
			err:  &ConfigError{},
		},
		{
			name: "dynamic channels",
			info: ort.InputOutputInfo{Name: "x", Dimensions: ort.NewShape(1, -1, 224, 224), DataType: ort.TensorElementDataTypeFloat},
			err:  &ConfigError{},
		},
		{
			name: "int64 input",
			info: ort.InputOutputInfo{Name: "ids", Dimensions: ort.NewShape(1, 3, 8, 8), DataType: ort.TensorElementDataTypeInt64},
			err:  ErrBackendTypeMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := inputSpecFromInfo(tt.info)
			switch want := tt.err.(type) {
			case nil:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			case *ConfigError:
				var cfgErr *ConfigError
				assert.ErrorAs(t, err, &cfgErr)
			default:
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestAppendProvider_WithoutRuntime(t *testing.T) {
	assert.NoError(t, appendProvider(nil, Device{Kind: DeviceCPU}, nil), "CPU needs no provider")

	var cfgErr *ConfigError
	assert.ErrorAs(t, appendProvider(nil, Device{Kind: DeviceSimulation}, nil), &cfgErr)
}
