//go:build rnnoise
// +build rnnoise

package rnnoise

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/xaionaro-go/denoise/pkg/noisemodel"
)

/*
#cgo pkg-config: rnnoise
#cgo CFLAGS: -march=native
#include <rnnoise.h>
*/
import "C"

// Model is a NoiseModel backed by librnnoise.
type Model struct{}

var _ noisemodel.NoiseModel = (*Model)(nil)

func New() (*Model, error) {
	if frameSize := int(C.rnnoise_get_frame_size()); frameSize != noisemodel.FrameSize {
		return nil, fmt.Errorf("librnnoise uses frames of %d samples, while %d is expected", frameSize, noisemodel.FrameSize)
	}
	return &Model{}, nil
}

func (*Model) CreateState() (noisemodel.StateHandle, error) {
	state := C.rnnoise_create(nil)
	if state == nil {
		return nil, nil
	}
	return state, nil
}

func (*Model) DestroyState(handle noisemodel.StateHandle) error {
	state, ok := handle.(*C.DenoiseState)
	if !ok || state == nil {
		return fmt.Errorf("invalid state handle %T", handle)
	}
	C.rnnoise_destroy(state)
	return nil
}

// ProcessFrame expects samples in [-1, 1]; librnnoise works in the int16
// scale, so the frame is gained before and ungained after the call.
func (*Model) ProcessFrame(handle noisemodel.StateHandle, output, input []float32) float32 {
	state := handle.(*C.DenoiseState)

	var scaled [noisemodel.FrameSize]float32
	gain(scaled[:], input)
	vadProb := C.rnnoise_process_frame(
		state,
		(*C.float)(unsafe.Pointer(unsafe.SliceData(output))),
		(*C.float)(unsafe.Pointer(&scaled[0])),
	)
	ungain(output)
	return float32(vadProb)
}

func gain(dst, src []float32) {
	for idx := range src {
		dst[idx] = src[idx] * math.MaxInt16
	}
}

func ungain(buf []float32) {
	for idx := range buf {
		buf[idx] /= math.MaxInt16
	}
}
