// Package perchannel implements NoiseSuppression with one denoise engine
// per audio channel.
package perchannel

import (
	"context"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/denoise/pkg/audio"
	"github.com/xaionaro-go/denoise/pkg/audio/planar"
	"github.com/xaionaro-go/denoise/pkg/denoiseengine"
	"github.com/xaionaro-go/denoise/pkg/noisemodel"
	"github.com/xaionaro-go/denoise/pkg/noisesuppression"
	"github.com/xaionaro-go/observability"
)

const floatSize = 4

type PerChannel struct {
	Locker    sync.Mutex
	Engines   []*denoiseengine.Engine
	PCMFormat audio.PCMFormat

	interleaved []float32
	planar      []float32
}

var _ noisesuppression.NoiseSuppression = (*PerChannel)(nil)

func New(
	ctx context.Context,
	model noisemodel.NoiseModel,
	channels audio.Channel,
) (_ret *PerChannel, _err error) {
	logger.Debugf(ctx, "perchannel.New: %T, channels:%d", model, channels)
	defer func() { logger.Debugf(ctx, "/perchannel.New: %T, channels:%d: %v", model, channels, _err) }()

	if channels == 0 {
		return nil, fmt.Errorf("the amount of channels cannot be zero")
	}
	pcmFormat, err := audio.NativeFloat32Format()
	if err != nil {
		return nil, err
	}

	s := &PerChannel{
		PCMFormat: pcmFormat,
	}
	for ch := audio.Channel(0); ch < channels; ch++ {
		engine, err := denoiseengine.New(ctx, model)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("unable to initialize the engine for channel #%d: %w", ch, err)
		}
		s.Engines = append(s.Engines, engine)
	}
	return s, nil
}

func (s *PerChannel) Close() error {
	s.Locker.Lock()
	defer s.Locker.Unlock()
	var mErr *multierror.Error
	for ch, engine := range s.Engines {
		if err := engine.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to close the engine of channel #%d: %w", ch, err))
		}
	}
	return mErr.ErrorOrNil()
}

func (s *PerChannel) Encoding(context.Context) (audio.Encoding, error) {
	return audio.EncodingPCM{
		PCMFormat:  s.PCMFormat,
		SampleRate: denoiseengine.SampleRate,
	}, nil
}

func (s *PerChannel) Channels(context.Context) (audio.Channel, error) {
	return audio.Channel(len(s.Engines)), nil
}

func (s *PerChannel) ChunkSize() uint {
	return uint(len(s.Engines)) * denoiseengine.FrameSize * floatSize
}

func (s *PerChannel) SuppressNoise(
	ctx context.Context,
	input []byte,
	outputVoice []byte,
) (_ret float64, _err error) {
	logger.Tracef(ctx, "SuppressNoise, len:%d", len(input))
	defer func() { logger.Tracef(ctx, "/SuppressNoise, len:%d: %v %v", len(input), _ret, _err) }()

	chunkSize := int(s.ChunkSize())
	if chunkSize == 0 {
		return 0, fmt.Errorf("no engines")
	}
	if len(input) != len(outputVoice) {
		return 0, fmt.Errorf("lengths of input and output slices are not equal: %d != %d", len(input), len(outputVoice))
	}
	if len(input) < chunkSize {
		return 0, fmt.Errorf("the size of the input is too small: %d < %d", len(input), chunkSize)
	}
	if len(input)%chunkSize != 0 {
		return 0, fmt.Errorf("the size of the input is not a multiple of ChunkSize: %d %% %d != 0", len(input), chunkSize)
	}

	s.Locker.Lock()
	defer s.Locker.Unlock()

	samples := len(input) / floatSize
	if cap(s.interleaved) < samples {
		s.interleaved = make([]float32, samples)
		s.planar = make([]float32, samples)
	}
	interleaved, planarBuf := s.interleaved[:samples], s.planar[:samples]

	if err := s.PCMFormat.DecodeFloat32(interleaved, input); err != nil {
		return 0, fmt.Errorf("unable to decode the input: %w", err)
	}
	channels := audio.Channel(len(s.Engines))
	if err := planar.Planarize(channels, planarBuf, interleaved); err != nil {
		return 0, fmt.Errorf("unable to planarize: %w", err)
	}
	planes, err := planar.Planes(channels, planarBuf)
	if err != nil {
		return 0, err
	}

	var maxVADScore float64
	if channels == 1 {
		maxVADScore, err = suppressOneChannel(ctx, s.Engines[0], planes[0])
	} else {
		maxVADScore, err = suppressMultipleChannels(ctx, s.Engines, planes)
	}
	if err != nil {
		return maxVADScore, err
	}

	if err := planar.Unplanarize(channels, interleaved, planarBuf); err != nil {
		return maxVADScore, fmt.Errorf("unable to unplanarize: %w", err)
	}
	if err := s.PCMFormat.EncodeFloat32(outputVoice, interleaved); err != nil {
		return maxVADScore, fmt.Errorf("unable to encode the output: %w", err)
	}
	return maxVADScore, nil
}

func suppressOneChannel(
	ctx context.Context,
	engine *denoiseengine.Engine,
	samples []float32,
) (float64, error) {
	var maxVADScore float64
	for len(samples) > 0 {
		frame := denoiseengine.Frame(samples[:denoiseengine.FrameSize])
		vadScore, err := engine.ProcessInto(ctx, frame, frame)
		if err != nil {
			return maxVADScore, fmt.Errorf("unable to process a frame: %w", err)
		}
		if vadScore > maxVADScore {
			maxVADScore = vadScore
		}
		samples = samples[denoiseengine.FrameSize:]
	}
	return maxVADScore, nil
}

func suppressMultipleChannels(
	ctx context.Context,
	engines []*denoiseengine.Engine,
	planes [][]float32,
) (float64, error) {
	var (
		locker      sync.Mutex
		wg          sync.WaitGroup
		maxVADScore float64
		mErr        *multierror.Error
	)
	for ch := range engines {
		engine, plane, ch := engines[ch], planes[ch], ch
		wg.Add(1)
		observability.Go(ctx, func() {
			defer wg.Done()
			vadScore, err := suppressOneChannel(ctx, engine, plane)
			locker.Lock()
			defer locker.Unlock()
			if err != nil {
				mErr = multierror.Append(mErr, fmt.Errorf("channel #%d: %w", ch, err))
			}
			if vadScore > maxVADScore {
				maxVADScore = vadScore
			}
		})
	}
	wg.Wait()
	return maxVADScore, mErr.ErrorOrNil()
}
