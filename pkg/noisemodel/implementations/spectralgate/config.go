package spectralgate

import (
	"fmt"
	"io"

	"github.com/xaionaro-go/denoise/pkg/noisemodel"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// NoiseFloor is the initial noise power estimate of every frequency bin.
	NoiseFloor float64 `yaml:"noise_floor"`

	// NoiseDecay is the weight of the previous noise estimate when a bin
	// is quieter than the estimate.
	NoiseDecay float64 `yaml:"noise_decay"`

	// NoiseRise is the per-frame multiplier of the noise estimate when a bin
	// is louder than the estimate.
	NoiseRise float64 `yaml:"noise_rise"`

	// StartupFrames is the amount of first frames of a state during which
	// the noise estimate rises by StartupNoiseRise instead of NoiseRise.
	StartupFrames    uint    `yaml:"startup_frames"`
	StartupNoiseRise float64 `yaml:"startup_noise_rise"`

	OverSubtraction float64 `yaml:"over_subtraction"`
	MinGain         float64 `yaml:"min_gain"`

	// EnergyGate is the mean power per bin below which a frame is
	// considered to contain no voice at all.
	EnergyGate float64 `yaml:"energy_gate"`

	// SNRThreshold is the per-bin signal-to-noise ratio (linear power)
	// starting from which a bin contributes to the voice score.
	SNRThreshold float64 `yaml:"snr_threshold"`
	VADOffset    float64 `yaml:"vad_offset"`
	VADSlope     float64 `yaml:"vad_slope"`

	SpeechBandLowHz  float64 `yaml:"speech_band_low_hz"`
	SpeechBandHighHz float64 `yaml:"speech_band_high_hz"`
}

func DefaultConfig() Config {
	return Config{
		NoiseFloor:       1e-7,
		NoiseDecay:       0.9,
		NoiseRise:        1.05,
		StartupFrames:    25,
		StartupNoiseRise: 2,
		OverSubtraction:  1.5,
		MinGain:          0.05,
		EnergyGate:       1e-10,
		SNRThreshold:     10,
		VADOffset:        0.2,
		VADSlope:         10,
		SpeechBandLowHz:  300,
		SpeechBandHighHz: 4000,
	}
}

func (cfg Config) Validate() error {
	nyquist := float64(noisemodel.SampleRate) / 2
	switch {
	case cfg.NoiseFloor <= 0:
		return fmt.Errorf("noise_floor must be positive: %v", cfg.NoiseFloor)
	case cfg.NoiseDecay < 0 || cfg.NoiseDecay >= 1:
		return fmt.Errorf("noise_decay must be within [0, 1): %v", cfg.NoiseDecay)
	case cfg.NoiseRise < 1:
		return fmt.Errorf("noise_rise cannot be less than 1: %v", cfg.NoiseRise)
	case cfg.StartupNoiseRise < 1:
		return fmt.Errorf("startup_noise_rise cannot be less than 1: %v", cfg.StartupNoiseRise)
	case cfg.OverSubtraction <= 0:
		return fmt.Errorf("over_subtraction must be positive: %v", cfg.OverSubtraction)
	case cfg.MinGain < 0 || cfg.MinGain > 1:
		return fmt.Errorf("min_gain must be within [0, 1]: %v", cfg.MinGain)
	case cfg.EnergyGate < 0:
		return fmt.Errorf("energy_gate cannot be negative: %v", cfg.EnergyGate)
	case cfg.SNRThreshold <= 0:
		return fmt.Errorf("snr_threshold must be positive: %v", cfg.SNRThreshold)
	case cfg.VADOffset < 0:
		return fmt.Errorf("vad_offset cannot be negative: %v", cfg.VADOffset)
	case cfg.VADSlope <= 0:
		return fmt.Errorf("vad_slope must be positive: %v", cfg.VADSlope)
	case cfg.SpeechBandLowHz < 0 || cfg.SpeechBandLowHz >= cfg.SpeechBandHighHz || cfg.SpeechBandHighHz > nyquist:
		return fmt.Errorf("invalid speech band: [%v, %v] (nyquist is %v)", cfg.SpeechBandLowHz, cfg.SpeechBandHighHz, nyquist)
	}
	return nil
}

// ReadConfig reads a YAML config; the fields that are not set keep
// the values of DefaultConfig.
func ReadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
		return cfg, fmt.Errorf("unable to decode the config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
