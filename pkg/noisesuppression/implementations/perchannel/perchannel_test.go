package perchannel

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/denoise/pkg/audio"
	"github.com/xaionaro-go/denoise/pkg/denoiseengine"
	"github.com/xaionaro-go/denoise/pkg/noisemodel"
	"github.com/xaionaro-go/denoise/pkg/noisemodel/implementations/spectralgate"
)

func encode(t *testing.T, format audio.PCMFormat, samples []float32) []byte {
	raw := make([]byte, len(samples)*4)
	require.NoError(t, format.EncodeFloat32(raw, samples))
	return raw
}

func TestPassThrough(t *testing.T) {
	ctx := context.Background()
	for _, channels := range []audio.Channel{1, 2, 3} {
		model := noisemodel.NewDummy()
		model.VADScore = 0.75
		s, err := New(ctx, model, channels)
		require.NoError(t, err)

		enc, err := s.Encoding(ctx)
		require.NoError(t, err)
		require.Equal(t, uint(4), enc.BytesPerSample())
		chs, err := s.Channels(ctx)
		require.NoError(t, err)
		require.Equal(t, channels, chs)
		require.Equal(t, uint(channels)*denoiseengine.FrameSize*4, s.ChunkSize())

		samples := make([]float32, int(channels)*denoiseengine.FrameSize*3)
		for idx := range samples {
			samples[idx] = float32(idx%97) / 97
		}
		input := encode(t, s.PCMFormat, samples)
		output := make([]byte, len(input))
		vad, err := s.SuppressNoise(ctx, input, output)
		require.NoError(t, err)
		require.InDelta(t, 0.75, vad, 1e-6)
		require.Equal(t, input, output)
		require.Equal(t, uint(channels)*3, model.Processed)

		require.NoError(t, s.Close())
		require.Zero(t, model.Alive())
	}
}

func TestChannelsAreIndependent(t *testing.T) {
	ctx := context.Background()
	model, err := spectralgate.New(spectralgate.DefaultConfig())
	require.NoError(t, err)
	s, err := New(ctx, model, 2)
	require.NoError(t, err)
	defer s.Close()

	// left: silence, right: a 1kHz tone
	samples := make([]float32, 2*denoiseengine.FrameSize)
	for pos := 0; pos < denoiseengine.FrameSize; pos++ {
		samples[pos*2+1] = float32(0.5 * math.Sin(2*math.Pi*1000*float64(pos)/denoiseengine.SampleRate))
	}
	input := encode(t, s.PCMFormat, samples)
	output := make([]byte, len(input))
	vad, err := s.SuppressNoise(ctx, input, output)
	require.NoError(t, err)
	require.Greater(t, vad, 0.5)

	decoded := make([]float32, len(samples))
	require.NoError(t, s.PCMFormat.DecodeFloat32(decoded, output))
	var leftEnergy, rightEnergy float64
	for pos := 0; pos < denoiseengine.FrameSize; pos++ {
		leftEnergy += float64(decoded[pos*2]) * float64(decoded[pos*2])
		rightEnergy += float64(decoded[pos*2+1]) * float64(decoded[pos*2+1])
	}
	require.InDelta(t, 0, leftEnergy, 1e-9)
	require.Greater(t, rightEnergy, 1.0)
}

func TestInvalidInput(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, noisemodel.NewDummy(), 2)
	require.NoError(t, err)
	defer s.Close()

	chunkSize := int(s.ChunkSize())
	for _, size := range []int{0, 4, chunkSize - 4, chunkSize + 4} {
		_, err := s.SuppressNoise(ctx, make([]byte, size), make([]byte, size))
		require.Error(t, err, size)
	}
	_, err = s.SuppressNoise(ctx, make([]byte, chunkSize), make([]byte, chunkSize*2))
	require.Error(t, err)
}

func TestUseAfterClose(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, noisemodel.NewDummy(), 2)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	chunkSize := int(s.ChunkSize())
	_, err = s.SuppressNoise(ctx, make([]byte, chunkSize), make([]byte, chunkSize))
	require.ErrorIs(t, err, denoiseengine.ErrUseAfterDestroy)
}

type failingAfter struct {
	*noisemodel.Dummy
	left int
}

func (m *failingAfter) CreateState() (noisemodel.StateHandle, error) {
	if m.left == 0 {
		return nil, nil
	}
	m.left--
	return m.Dummy.CreateState()
}

func TestInitializationFailureReleasesEngines(t *testing.T) {
	ctx := context.Background()
	model := &failingAfter{Dummy: noisemodel.NewDummy(), left: 2}
	s, err := New(ctx, model, 4)
	require.ErrorIs(t, err, denoiseengine.ErrInitialization)
	require.Nil(t, s)
	require.Equal(t, uint(2), model.Created)
	require.Zero(t, model.Alive())

	_, err = New(ctx, noisemodel.NewDummy(), 0)
	require.Error(t, err)
}
