package noisesuppressionstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/iamcalledrob/circular"
	"github.com/xaionaro-go/denoise/pkg/noisesuppression"
)

// NoiseSuppressionStream is an io.Reader of denoised audio read from
// the input reader.
//
// The input is consumed in whole chunks of the NoiseSuppression. A trailing
// incomplete chunk is zero-padded, processed and truncated back to its
// original length.
type NoiseSuppressionStream struct {
	noisesuppression.NoiseSuppression
	locker       sync.Mutex
	readCtx      context.Context
	input        io.Reader
	frameSize    int
	inputBuf     []byte
	processBuf   []byte
	outputBuffer *circular.Buffer
	inputEOF     bool
	resultError  error
	maxVADScore  float64
}

var _ io.Reader = (*NoiseSuppressionStream)(nil)

// NewNoiseSuppressionStream returns a stream that processes up to
// chunksPerRead chunks of input per read from the input reader.
func NewNoiseSuppressionStream(
	ctx context.Context,
	input io.Reader,
	noiseSuppression noisesuppression.NoiseSuppression,
	chunksPerRead uint,
) (*NoiseSuppressionStream, error) {
	encoding, err := noiseSuppression.Encoding(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get the encoding of the noise suppression: %w", err)
	}
	channels, err := noiseSuppression.Channels(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get the amount of channels of the noise suppression: %w", err)
	}
	chunkSize := noiseSuppression.ChunkSize()
	if chunkSize == 0 {
		return nil, fmt.Errorf("the noise suppression %T has zero ChunkSize", noiseSuppression)
	}
	if chunksPerRead == 0 {
		chunksPerRead = 1
	}

	bufferSize := int(chunkSize * chunksPerRead)
	return &NoiseSuppressionStream{
		NoiseSuppression: noiseSuppression,
		readCtx:          ctx,
		input:            input,
		frameSize:        int(encoding.BytesPerSample()) * int(channels),
		inputBuf:         make([]byte, bufferSize),
		processBuf:       make([]byte, bufferSize),
		outputBuffer:     circular.NewBuffer(2 * bufferSize),
	}, nil
}

func (s *NoiseSuppressionStream) Read(pcm []byte) (_ret int, _err error) {
	logger.Tracef(s.readCtx, "Read, len:%d", len(pcm))
	defer func() { logger.Tracef(s.readCtx, "/Read, len:%d: %d, %v", len(pcm), _ret, _err) }()

	if len(pcm) == 0 {
		return 0, nil
	}

	s.locker.Lock()
	defer s.locker.Unlock()

	for {
		n, err := s.outputBuffer.Read(pcm)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return n, fmt.Errorf("unable to read from the circular buffer: %w", err)
		}
		if s.resultError != nil {
			return 0, s.resultError
		}
		if err := s.fillLocked(s.readCtx); err != nil {
			s.resultError = err
		}
	}
}

// MaxVADScore returns the highest voice probability seen so far.
func (s *NoiseSuppressionStream) MaxVADScore() float64 {
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.maxVADScore
}

func (s *NoiseSuppressionStream) fillLocked(ctx context.Context) (_err error) {
	logger.Tracef(ctx, "fillLocked")
	defer func() { logger.Tracef(ctx, "/fillLocked: %v", _err) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if s.inputEOF {
		return io.EOF
	}

	n, err := io.ReadFull(s.input, s.inputBuf)
	switch {
	case err == nil:
	case errors.Is(err, io.ErrUnexpectedEOF):
		s.inputEOF = true
	case errors.Is(err, io.EOF):
		return io.EOF
	default:
		return fmt.Errorf("unable to read the input: %w", err)
	}
	if n%s.frameSize != 0 {
		return fmt.Errorf("received %d bytes, which is not a multiple of %d", n, s.frameSize)
	}

	chunkSize := int(s.ChunkSize())
	padded := (n + chunkSize - 1) / chunkSize * chunkSize
	clear(s.inputBuf[n:padded])

	vadScore, err := s.NoiseSuppression.SuppressNoise(ctx, s.inputBuf[:padded], s.processBuf[:padded])
	if err != nil {
		return fmt.Errorf("unable to noise-suppress: %w", err)
	}
	if vadScore > s.maxVADScore {
		s.maxVADScore = vadScore
	}

	w, err := s.outputBuffer.Write(s.processBuf[:n])
	if err != nil {
		return fmt.Errorf("unable to write to the circular buffer: %w", err)
	}
	if w != n {
		return fmt.Errorf("wrote != read: %d != %d", w, n)
	}
	return nil
}
