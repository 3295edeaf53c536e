// Package noisemodel defines the capability a denoise engine drives: an
// opaque per-stream suppression state operated on fixed-size frames.
package noisemodel

import (
	"time"
)

const (
	// FrameSize is the amount of samples in one frame.
	FrameSize = 480

	// SampleRate is the only sample rate the models operate at.
	SampleRate = 48_000

	// FrameDuration is the duration of one frame at SampleRate.
	FrameDuration = time.Second * FrameSize / SampleRate
)

// StateHandle is an opaque suppression context created by a NoiseModel.
// A nil StateHandle is never valid.
type StateHandle any

type NoiseModel interface {
	// CreateState allocates a new suppression context. A nil handle
	// means the allocation failed.
	CreateState() (StateHandle, error)

	// DestroyState releases a context created by CreateState.
	DestroyState(StateHandle) error

	// ProcessFrame denoises exactly FrameSize samples of input into output
	// and returns the probability that the frame contains voice.
	//
	// The buffers must not overlap.
	ProcessFrame(state StateHandle, output, input []float32) float32
}
