package vad

import (
	"context"
	"time"

	"github.com/xaionaro-go/denoise/pkg/audio"
)

type VAD interface {
	audio.AbstractAnalyzer

	// FindNextVoice returns the highest voice confidence among the analyzed
	// samples and the offset of the first stretch of voice (of at least
	// minDuration with confidence of at least confidenceThreshold), or -1
	// if there is no such stretch.
	FindNextVoice(
		_ context.Context,
		samples []byte,
		confidenceThreshold float64,
		minDuration time.Duration,
	) (float64, time.Duration, error)
}
