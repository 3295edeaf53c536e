// Package spectralgate is an in-process NoiseModel: a per-bin spectral
// subtraction gate with a minimum-tracking noise estimate and an SNR based
// voice activity score.
package spectralgate

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"github.com/xaionaro-go/denoise/pkg/noisemodel"
)

const (
	bins    = noisemodel.FrameSize/2 + 1
	binHz   = float64(noisemodel.SampleRate) / noisemodel.FrameSize
	epsilon = 1e-20

	// minNoise keeps the estimate rising again after a long digital silence.
	minNoise = 1e-12
)

type Model struct {
	Config Config

	window      []float64
	windowPower float64
	bandLow     int
	bandHigh    int
	vadBaseline float64
}

var _ noisemodel.NoiseModel = (*Model)(nil)

type state struct {
	noise  []float64
	frames uint
}

func New(cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	w := window.Hann(noisemodel.FrameSize)
	var windowPower float64
	for _, v := range w {
		windowPower += v * v
	}

	bandLow := int(math.Ceil(cfg.SpeechBandLowHz / binHz))
	bandHigh := int(math.Floor(cfg.SpeechBandHighHz / binHz))
	if bandHigh >= bins {
		bandHigh = bins - 1
	}
	if bandLow > bandHigh {
		return nil, fmt.Errorf("the speech band [%v, %v] does not contain any frequency bin", cfg.SpeechBandLowHz, cfg.SpeechBandHighHz)
	}

	return &Model{
		Config:      cfg,
		window:      w,
		windowPower: windowPower,
		bandLow:     bandLow,
		bandHigh:    bandHigh,
		vadBaseline: logistic(cfg.VADSlope * -cfg.VADOffset),
	}, nil
}

func (m *Model) CreateState() (noisemodel.StateHandle, error) {
	s := &state{
		noise: make([]float64, bins),
	}
	for k := range s.noise {
		s.noise[k] = m.Config.NoiseFloor
	}
	return s, nil
}

func (m *Model) DestroyState(handle noisemodel.StateHandle) error {
	s, ok := handle.(*state)
	if !ok {
		return fmt.Errorf("invalid state handle %T", handle)
	}
	s.noise = nil
	return nil
}

func (m *Model) ProcessFrame(handle noisemodel.StateHandle, output, input []float32) float32 {
	s := handle.(*state)

	samples := make([]float64, noisemodel.FrameSize)
	windowed := make([]float64, noisemodel.FrameSize)
	for idx, v := range input[:noisemodel.FrameSize] {
		samples[idx] = float64(v)
		windowed[idx] = samples[idx] * m.window[idx]
	}
	spectrum := fft.FFTReal(samples)
	analysis := fft.FFTReal(windowed)

	rise := m.Config.NoiseRise
	if s.frames < m.Config.StartupFrames {
		rise = m.Config.StartupNoiseRise
		s.frames++
	}

	var energy, score float64
	for k := 0; k < bins; k++ {
		power := sqAbs(analysis[k]) / m.windowPower
		noise := s.noise[k]
		energy += power

		if k >= m.bandLow && k <= m.bandHigh {
			snr := power / (noise + epsilon)
			if snr > m.Config.SNRThreshold {
				score += math.Log10(snr / m.Config.SNRThreshold)
			}
		}

		g := complex(m.gain(power, noise), 0)
		spectrum[k] *= g
		if k > 0 && k < noisemodel.FrameSize-k {
			spectrum[noisemodel.FrameSize-k] *= g
		}

		s.noise[k] = m.nextNoise(power, noise, rise)
	}

	cleaned := fft.IFFT(spectrum)
	for idx := range output[:noisemodel.FrameSize] {
		output[idx] = float32(real(cleaned[idx]))
	}

	if energy/bins < m.Config.EnergyGate {
		return 0
	}
	score /= float64(m.bandHigh - m.bandLow + 1)

	// a score of 0 (no bin above the threshold) maps to 0
	vad := (logistic(m.Config.VADSlope*(score-m.Config.VADOffset)) - m.vadBaseline) / (1 - m.vadBaseline)
	return float32(math.Min(math.Max(vad, 0), 1))
}

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// gain returns the amplitude gain of a bin.
func (m *Model) gain(power, noise float64) float64 {
	if power <= 0 {
		return m.Config.MinGain
	}
	g := 1 - m.Config.OverSubtraction*noise/power
	minPowerGain := m.Config.MinGain * m.Config.MinGain
	if g < minPowerGain {
		g = minPowerGain
	}
	return math.Sqrt(g)
}

func (m *Model) nextNoise(power, noise, rise float64) float64 {
	if power < noise {
		noise = m.Config.NoiseDecay*noise + (1-m.Config.NoiseDecay)*power
	} else {
		noise *= rise
	}
	return math.Max(noise, minNoise)
}

func sqAbs(c complex128) float64 {
	return real(c)*real(c) + imag(c)*imag(c)
}
