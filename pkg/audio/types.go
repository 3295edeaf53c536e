package audio

import (
	"time"
)

type Channel uint

type SampleRate uint

// SamplesForDuration returns how many samples (per channel) fit into the duration.
func (r SampleRate) SamplesForDuration(d time.Duration) uint64 {
	return uint64(d) * uint64(r) / uint64(time.Second)
}
