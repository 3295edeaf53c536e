package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/datacounter"
	"github.com/xaionaro-go/denoise/pkg/audio"
	"github.com/xaionaro-go/denoise/pkg/noisemodel"
	"github.com/xaionaro-go/denoise/pkg/noisemodel/implementations/rnnoise"
	"github.com/xaionaro-go/denoise/pkg/noisemodel/implementations/spectralgate"
	"github.com/xaionaro-go/denoise/pkg/noisesuppression/implementations/perchannel"
	"github.com/xaionaro-go/denoise/pkg/noisesuppressionstream"
	"github.com/xaionaro-go/observability"
)

func main() {
	loggerLevel := logger.LevelInfo
	pflag.Var(&loggerLevel, "log-level", "Log level")
	isS16Flag := pflag.Bool("s16", false, "the input and output are signed 16-bit little-endian instead of native float32")
	modelFlag := pflag.String("model", "spectralgate", "noise model: spectralgate or rnnoise")
	modelConfigFlag := pflag.String("model-config", "", "path to a YAML config of the spectralgate model")
	channelsFlag := pflag.Uint("channels", 1, "the amount of interleaved channels in the input")
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	pflag.Parse()

	if pflag.NArg() != 2 {
		panic(fmt.Errorf("expected exactly two arguments: <input-file> <output-file>"))
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	if *netPprofAddr != "" {
		observability.Go(ctx, func() { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	model, err := newModel(*modelFlag, *modelConfigFlag)
	assertNoError(err)

	ns, err := perchannel.New(ctx, model, audio.Channel(*channelsFlag))
	assertNoError(err)
	defer ns.Close()

	input, err := os.Open(pflag.Arg(0))
	assertNoError(err)
	defer input.Close()

	output, err := os.OpenFile(pflag.Arg(1), os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0640)
	assertNoError(err)
	defer output.Close()

	var (
		reader io.Reader = input
		writer io.Writer = output
	)
	if *isS16Flag {
		reader = &s16ToFloat32Reader{Backend: input, Format: ns.PCMFormat}
		writer = &float32ToS16Writer{Backend: output, Format: ns.PCMFormat}
	}

	stream, err := noisesuppressionstream.NewNoiseSuppressionStream(ctx, reader, ns, 10)
	assertNoError(err)

	wc := datacounter.NewWriterCounter(writer)
	_, err = io.Copy(wc, stream)
	assertNoError(err)
	logger.Infof(ctx, "written %d bytes of float32 audio, max VAD score: %.3f", wc.Count(), stream.MaxVADScore())
}

func newModel(name string, configPath string) (noisemodel.NoiseModel, error) {
	switch name {
	case "spectralgate":
		cfg := spectralgate.DefaultConfig()
		if configPath != "" {
			f, err := os.Open(configPath)
			if err != nil {
				return nil, fmt.Errorf("unable to open the model config: %w", err)
			}
			defer f.Close()
			cfg, err = spectralgate.ReadConfig(f)
			if err != nil {
				return nil, fmt.Errorf("unable to read the model config '%s': %w", configPath, err)
			}
		}
		return spectralgate.New(cfg)
	case "rnnoise":
		return rnnoise.New()
	default:
		return nil, fmt.Errorf("unknown model '%s'", name)
	}
}

type s16ToFloat32Reader struct {
	Backend io.Reader
	Format  audio.PCMFormat
	buf     []byte
	samples []float32
}

func (r *s16ToFloat32Reader) Read(p []byte) (int, error) {
	count := len(p) / 4
	if count == 0 {
		return 0, fmt.Errorf("the provided buffer is too short: %d < 4", len(p))
	}
	if cap(r.buf) < count*2 {
		r.buf = make([]byte, count*2)
		r.samples = make([]float32, count)
	}
	n, err := io.ReadFull(r.Backend, r.buf[:count*2])
	if n%2 != 0 {
		return 0, fmt.Errorf("received an odd amount of bytes of s16 audio: %d", n)
	}
	samples := r.samples[:n/2]
	for idx := range samples {
		samples[idx] = float32(int16(uint16(r.buf[idx*2])|uint16(r.buf[idx*2+1])<<8)) / math.MaxInt16
	}
	if encErr := r.Format.EncodeFloat32(p[:len(samples)*4], samples); encErr != nil {
		return 0, encErr
	}
	if err == io.ErrUnexpectedEOF {
		err = nil
	}
	return len(samples) * 4, err
}

type float32ToS16Writer struct {
	Backend io.Writer
	Format  audio.PCMFormat
	samples []float32
	buf     []byte
}

func (w *float32ToS16Writer) Write(p []byte) (int, error) {
	if len(p)%4 != 0 {
		return 0, fmt.Errorf("expected whole float32 samples, but received %d bytes", len(p))
	}
	count := len(p) / 4
	if cap(w.samples) < count {
		w.samples = make([]float32, count)
		w.buf = make([]byte, count*2)
	}
	samples, buf := w.samples[:count], w.buf[:count*2]
	if err := w.Format.DecodeFloat32(samples, p); err != nil {
		return 0, err
	}
	for idx, v := range samples {
		s := int16(max(min(v*math.MaxInt16, math.MaxInt16), math.MinInt16))
		buf[idx*2] = byte(uint16(s))
		buf[idx*2+1] = byte(uint16(s) >> 8)
	}
	if _, err := w.Backend.Write(buf); err != nil {
		return 0, err
	}
	return len(p), nil
}

func assertNoError(err error) {
	if err != nil {
		panic(err)
	}
}
