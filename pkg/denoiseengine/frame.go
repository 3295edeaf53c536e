package denoiseengine

import (
	"fmt"

	"github.com/xaionaro-go/denoise/pkg/audio"
	"github.com/xaionaro-go/denoise/pkg/noisemodel"
)

const (
	FrameSize     = noisemodel.FrameSize
	SampleRate    = noisemodel.SampleRate
	FrameDuration = noisemodel.FrameDuration

	frameBytes = FrameSize * 4
)

// Frame is exactly FrameSize mono samples (10ms at 48kHz).
type Frame []float32

func NewFrame() Frame {
	return make(Frame, FrameSize)
}

func (f Frame) validate() error {
	if len(f) != FrameSize {
		return fmt.Errorf("%w: expected %d samples, but received %d", ErrInvalidFrame, FrameSize, len(f))
	}
	return nil
}

// FrameFromPCM decodes a raw frame; only float32 formats are accepted.
func FrameFromPCM(format audio.PCMFormat, pcm []byte) (Frame, error) {
	if !format.IsFloat32() {
		return nil, fmt.Errorf("%w: samples must be float32, but received %s", ErrInvalidFrame, format)
	}
	if len(pcm) != frameBytes {
		return nil, fmt.Errorf("%w: expected %d bytes, but received %d", ErrInvalidFrame, frameBytes, len(pcm))
	}
	frame := NewFrame()
	if err := format.DecodeFloat32(frame, pcm); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}
	return frame, nil
}

type ProcessResult struct {
	Frame Frame

	// VADScore is the probability (0..1) that the frame contains voice.
	VADScore float64
}
