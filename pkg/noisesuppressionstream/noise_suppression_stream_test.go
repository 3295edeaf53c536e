package noisesuppressionstream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/denoise/pkg/audio"
	"github.com/xaionaro-go/denoise/pkg/denoiseengine"
	"github.com/xaionaro-go/denoise/pkg/noisemodel/implementations/spectralgate"
	"github.com/xaionaro-go/denoise/pkg/noisesuppression"
	"github.com/xaionaro-go/denoise/pkg/noisesuppression/implementations/perchannel"
)

func newDummy() *noisesuppression.Dummy {
	return noisesuppression.NewDummy(
		audio.EncodingPCM{PCMFormat: audio.PCMFormatFloat32LE, SampleRate: 48000},
		1,
		8,
	)
}

func TestPassThroughWithTail(t *testing.T) {
	ctx := context.Background()
	for _, size := range []int{0, 4, 8, 20, 64} {
		input := make([]byte, size)
		for idx := range input {
			input[idx] = byte(idx + 1)
		}
		s, err := NewNoiseSuppressionStream(ctx, bytes.NewReader(input), newDummy(), 2)
		require.NoError(t, err)

		output, err := io.ReadAll(s)
		require.NoError(t, err)
		require.Equal(t, input, output, size)
	}
}

func TestSmallReads(t *testing.T) {
	ctx := context.Background()
	input := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	s, err := NewNoiseSuppressionStream(ctx, bytes.NewReader(input), newDummy(), 1)
	require.NoError(t, err)

	var output []byte
	buf := make([]byte, 3)
	for {
		n, err := s.Read(buf)
		output = append(output, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
	}
	require.Equal(t, input, output)
	require.Equal(t, 1.0, s.MaxVADScore())
}

func TestIncompleteSample(t *testing.T) {
	ctx := context.Background()
	s, err := NewNoiseSuppressionStream(ctx, bytes.NewReader(make([]byte, 10)), newDummy(), 1)
	require.NoError(t, err)
	_, err = io.ReadAll(s)
	require.Error(t, err)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("device is gone")
}

func TestInputErrorIsSticky(t *testing.T) {
	ctx := context.Background()
	s, err := NewNoiseSuppressionStream(ctx, failingReader{}, newDummy(), 1)
	require.NoError(t, err)
	_, err = s.Read(make([]byte, 8))
	require.ErrorContains(t, err, "device is gone")
	_, err = s.Read(make([]byte, 8))
	require.ErrorContains(t, err, "device is gone")
}

func TestCanceledContext(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	cancelFn()
	s, err := NewNoiseSuppressionStream(ctx, bytes.NewReader(make([]byte, 64)), newDummy(), 1)
	require.NoError(t, err)
	_, err = s.Read(make([]byte, 8))
	require.ErrorIs(t, err, context.Canceled)
}

func TestSilenceThroughEngines(t *testing.T) {
	ctx := context.Background()
	model, err := spectralgate.New(spectralgate.DefaultConfig())
	require.NoError(t, err)
	ns, err := perchannel.New(ctx, model, 2)
	require.NoError(t, err)

	size := 2*denoiseengine.FrameSize*4*5 + 2*4*10
	s, err := NewNoiseSuppressionStream(ctx, bytes.NewReader(make([]byte, size)), ns, 2)
	require.NoError(t, err)
	defer s.Close()

	output, err := io.ReadAll(s)
	require.NoError(t, err)
	require.Len(t, output, size)
	samples := make([]float32, size/4)
	require.NoError(t, ns.PCMFormat.DecodeFloat32(samples, output))
	for _, v := range samples {
		require.InDelta(t, 0, v, 1e-9)
	}
	require.Equal(t, 0.0, s.MaxVADScore())
}
