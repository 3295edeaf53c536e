package planar

import (
	"fmt"

	"github.com/xaionaro-go/denoise/pkg/audio"
)

func checkLayout(channels audio.Channel, outputLen, inputLen int) error {
	if channels == 0 {
		return fmt.Errorf("the amount of channels cannot be zero")
	}
	if inputLen%int(channels) != 0 {
		return fmt.Errorf("expected an amount of samples that is a multiple of %d, but received %d", channels, inputLen)
	}
	if inputLen != outputLen {
		return fmt.Errorf("the lengths of input and output are not equal: %d != %d", inputLen, outputLen)
	}
	return nil
}

// Planarize converts interleaved samples (L R L R ...) into the planar
// layout (L L ... R R ...).
func Planarize[T any](channels audio.Channel, output, input []T) error {
	if err := checkLayout(channels, len(output), len(input)); err != nil {
		return err
	}

	samplesPerChan := len(input) / int(channels)
	for ch := 0; ch < int(channels); ch++ {
		plane := output[ch*samplesPerChan : (ch+1)*samplesPerChan]
		for pos := range plane {
			plane[pos] = input[pos*int(channels)+ch]
		}
	}
	return nil
}

// Planes returns per-channel views into a planar buffer.
func Planes[T any](channels audio.Channel, buf []T) ([][]T, error) {
	if err := checkLayout(channels, len(buf), len(buf)); err != nil {
		return nil, err
	}
	samplesPerChan := len(buf) / int(channels)
	planes := make([][]T, channels)
	for ch := range planes {
		planes[ch] = buf[ch*samplesPerChan : (ch+1)*samplesPerChan : (ch+1)*samplesPerChan]
	}
	return planes, nil
}
