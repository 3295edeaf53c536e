package noisesuppression

import (
	"context"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/denoise/pkg/noisesuppression"
	"github.com/xaionaro-go/denoise/pkg/vad"
)

// VAD detects voice using the voice probabilities reported by a
// NoiseSuppression; the denoised audio itself is discarded.
type VAD struct {
	noisesuppression.NoiseSuppression
	ChunkSize     uint
	ChunkDuration time.Duration
	Buffer        []byte
}

var _ vad.VAD = (*VAD)(nil)

// NewVAD returns a VAD that analyzes the audio in steps of roughly
// preferredGranularity (but never less than one chunk of the
// noise suppression).
func NewVAD(
	ctx context.Context,
	noiseSuppression noisesuppression.NoiseSuppression,
	preferredGranularity time.Duration,
) (*VAD, error) {
	channels, err := noiseSuppression.Channels(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get the amount of channels: %w", err)
	}
	encoding, err := noiseSuppression.Encoding(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get the encoding: %w", err)
	}
	bytesPerSecond := encoding.BytesForDuration(time.Second) * uint64(channels)
	if bytesPerSecond == 0 {
		return nil, fmt.Errorf("unable to calculate the bitrate of encoding %s with %d channels", encoding, channels)
	}

	baseChunkSize := uint64(noiseSuppression.ChunkSize())
	if baseChunkSize == 0 {
		return nil, fmt.Errorf("the noise suppression %T has zero ChunkSize", noiseSuppression)
	}
	preferredChunkSize := encoding.BytesForDuration(preferredGranularity) * uint64(channels)
	subChunks := max((preferredChunkSize+baseChunkSize/2)/baseChunkSize, 1)
	chunkSize := subChunks * baseChunkSize
	chunkDuration := time.Duration(chunkSize) * time.Second / time.Duration(bytesPerSecond)
	logger.Debugf(ctx, "resulting chunkSize:%d and chunkDuration:%v", chunkSize, chunkDuration)

	return &VAD{
		NoiseSuppression: noiseSuppression,
		ChunkSize:        uint(chunkSize),
		ChunkDuration:    chunkDuration,
		Buffer:           make([]byte, chunkSize),
	}, nil
}

// FindNextVoice looks for consecutive chunks with voice. A trailing
// incomplete chunk is ignored.
func (v *VAD) FindNextVoice(
	ctx context.Context,
	samples []byte,
	confidenceThreshold float64,
	minDuration time.Duration,
) (_maxConfidence float64, _pos time.Duration, _err error) {
	logger.Tracef(ctx, "FindNextVoice, len:%d", len(samples))
	defer func() { logger.Tracef(ctx, "/FindNextVoice, len:%d: %v %v %v", len(samples), _maxConfidence, _pos, _err) }()

	var (
		maxConfidence float64
		voiceStart    = time.Duration(-1)
		voiceLength   time.Duration
	)
	for pos := 0; len(samples) >= int(v.ChunkSize); pos++ {
		chunk := samples[:v.ChunkSize]
		samples = samples[v.ChunkSize:]

		confidence, err := v.NoiseSuppression.SuppressNoise(ctx, chunk, v.Buffer)
		if err != nil {
			return maxConfidence, -1, fmt.Errorf("unable to analyze chunk #%d: %w", pos, err)
		}
		maxConfidence = max(maxConfidence, confidence)

		if confidence < confidenceThreshold {
			voiceStart, voiceLength = -1, 0
			continue
		}
		if voiceStart < 0 {
			voiceStart = v.ChunkDuration * time.Duration(pos)
		}
		voiceLength += v.ChunkDuration
		if voiceLength >= minDuration {
			return maxConfidence, voiceStart, nil
		}
	}
	return maxConfidence, -1, nil
}
