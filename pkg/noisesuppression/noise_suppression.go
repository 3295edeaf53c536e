package noisesuppression

import (
	"context"

	"github.com/xaionaro-go/denoise/pkg/audio"
)

// NoiseSuppression denoises raw interleaved PCM of the Encoding and the
// amount of Channels it reports.
type NoiseSuppression interface {
	audio.AbstractAnalyzer

	// ChunkSize is the size (in bytes) of the smallest processable unit;
	// SuppressNoise accepts only multiples of it.
	ChunkSize() uint

	// SuppressNoise writes the denoised input into outputVoice (of the same
	// length) and returns the highest voice probability found in the input.
	SuppressNoise(ctx context.Context, input []byte, outputVoice []byte) (float64, error)
}
