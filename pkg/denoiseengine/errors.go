package denoiseengine

import (
	"errors"
)

var (
	// ErrInitialization is returned when the model was unable to allocate
	// a suppression state.
	ErrInitialization = errors.New("unable to initialize the noise suppression state")

	// ErrInvalidFrame is returned when a frame is not exactly FrameSize
	// float32 samples. Such frames are rejected before reaching the model.
	ErrInvalidFrame = errors.New("invalid frame")

	// ErrUseAfterDestroy is returned when the engine is used after Close.
	ErrUseAfterDestroy = errors.New("the engine is already destroyed")
)
