package audio

import (
	"fmt"
	"time"
)

type Encoding interface {
	fmt.Stringer
	BytesPerSample() uint
	BytesForDuration(time.Duration) uint64
}

type EncodingPCM struct {
	PCMFormat  PCMFormat
	SampleRate SampleRate
}

var _ Encoding = EncodingPCM{}

func (e EncodingPCM) String() string {
	return fmt.Sprintf("pcm_%s_%d", e.PCMFormat, e.SampleRate)
}

func (e EncodingPCM) BytesPerSample() uint {
	return e.PCMFormat.Size()
}

// BytesForDuration returns the amount of bytes for a single channel.
func (e EncodingPCM) BytesForDuration(d time.Duration) uint64 {
	return e.SampleRate.SamplesForDuration(d) * uint64(e.BytesPerSample())
}
