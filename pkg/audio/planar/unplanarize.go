package planar

import (
	"github.com/xaionaro-go/denoise/pkg/audio"
)

// Unplanarize is the reverse of Planarize.
func Unplanarize[T any](channels audio.Channel, output, input []T) error {
	if err := checkLayout(channels, len(output), len(input)); err != nil {
		return err
	}

	samplesPerChan := len(input) / int(channels)
	for ch := 0; ch < int(channels); ch++ {
		plane := input[ch*samplesPerChan : (ch+1)*samplesPerChan]
		for pos, v := range plane {
			output[pos*int(channels)+ch] = v
		}
	}
	return nil
}
