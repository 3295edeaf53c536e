// Package denoiseengine drives a NoiseModel frame by frame while owning
// exactly one suppression state.
//
// An Engine is created Ready by New, stays Ready while processing frames and
// becomes Destroyed (terminal) on Close. Close must be called when the engine
// is no longer needed; a finalizer releases a leaked state as a last resort.
package denoiseengine

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"runtime"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/denoise/pkg/audio"
	"github.com/xaionaro-go/denoise/pkg/noisemodel"
)

type Engine struct {
	locker sync.Mutex
	model  noisemodel.NoiseModel
	handle noisemodel.StateHandle
	state  State
	input  Frame
}

func New(
	ctx context.Context,
	model noisemodel.NoiseModel,
) (_ret *Engine, _err error) {
	logger.Tracef(ctx, "New")
	defer func() { logger.Tracef(ctx, "/New: %v", _err) }()

	if model == nil {
		return nil, fmt.Errorf("%w: no model provided", ErrInitialization)
	}
	handle, err := model.CreateState()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	if isNilHandle(handle) {
		return nil, fmt.Errorf("%w: the model %T returned a nil state", ErrInitialization, model)
	}

	e := &Engine{
		model:  model,
		handle: handle,
		state:  StateReady,
		input:  NewFrame(),
	}
	runtime.SetFinalizer(e, (*Engine).finalize)
	return e, nil
}

func isNilHandle(handle noisemodel.StateHandle) bool {
	if handle == nil {
		return true
	}
	v := reflect.ValueOf(handle)
	switch v.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func (e *Engine) State() State {
	e.locker.Lock()
	defer e.locker.Unlock()
	return e.state
}

// Process denoises a frame into a newly allocated frame. The input frame
// is never modified.
func (e *Engine) Process(
	ctx context.Context,
	frame Frame,
) (ProcessResult, error) {
	output := NewFrame()
	vadScore, err := e.ProcessInto(ctx, output, frame)
	if err != nil {
		return ProcessResult{}, err
	}
	return ProcessResult{
		Frame:    output,
		VADScore: vadScore,
	}, nil
}

// ProcessInto is the same as Process, but writes the result into a
// caller-owned output frame. Output may be the same slice as input.
func (e *Engine) ProcessInto(
	ctx context.Context,
	output Frame,
	input Frame,
) (_ret float64, _err error) {
	logger.Tracef(ctx, "ProcessInto")
	defer func() { logger.Tracef(ctx, "/ProcessInto: %v %v", _ret, _err) }()

	e.locker.Lock()
	defer e.locker.Unlock()
	if err := e.checkReadyLocked(); err != nil {
		return 0, err
	}
	if err := input.validate(); err != nil {
		return 0, fmt.Errorf("invalid input: %w", err)
	}
	if err := output.validate(); err != nil {
		return 0, fmt.Errorf("invalid output: %w", err)
	}
	return e.processLocked(output, input), nil
}

// ProcessPCM processes a raw frame of FrameSize samples in the given format.
// Formats other than float32 are rejected with ErrInvalidFrame.
func (e *Engine) ProcessPCM(
	ctx context.Context,
	format audio.PCMFormat,
	pcm []byte,
) (_ret ProcessResult, _err error) {
	logger.Tracef(ctx, "ProcessPCM: %s, len:%d", format, len(pcm))
	defer func() { logger.Tracef(ctx, "/ProcessPCM: %s, len:%d: %v", format, len(pcm), _err) }()

	e.locker.Lock()
	defer e.locker.Unlock()
	if err := e.checkReadyLocked(); err != nil {
		return ProcessResult{}, err
	}
	input, err := FrameFromPCM(format, pcm)
	if err != nil {
		return ProcessResult{}, err
	}
	output := NewFrame()
	vadScore := e.processLocked(output, input)
	return ProcessResult{
		Frame:    output,
		VADScore: vadScore,
	}, nil
}

func (e *Engine) checkReadyLocked() error {
	switch e.state {
	case StateReady:
		return nil
	case StateDestroyed:
		return ErrUseAfterDestroy
	default:
		return fmt.Errorf("%w: the engine is %s, use New", ErrInitialization, e.state)
	}
}

func (e *Engine) processLocked(output, input Frame) float64 {
	copy(e.input, input)
	vadScore := float64(e.model.ProcessFrame(e.handle, output, e.input))
	return clampVADScore(vadScore)
}

func clampVADScore(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return v
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Close releases the suppression state. It is safe to call it multiple
// times; it never fails.
func (e *Engine) Close() error {
	e.locker.Lock()
	defer e.locker.Unlock()
	if e.state != StateReady {
		return nil
	}
	e.releaseLocked(context.Background())
	runtime.SetFinalizer(e, nil)
	return nil
}

func (e *Engine) releaseLocked(ctx context.Context) {
	if e.state != StateReady {
		return
	}
	if err := e.model.DestroyState(e.handle); err != nil {
		logger.Warnf(ctx, "unable to destroy the state of %T: %v", e.model, err)
	}
	e.handle = nil
	e.state = StateDestroyed
}

func (e *Engine) finalize() {
	e.locker.Lock()
	defer e.locker.Unlock()
	if e.state == StateReady {
		logger.Warnf(context.Background(), "a denoise engine was garbage collected without being closed")
	}
	e.releaseLocked(context.Background())
}
