package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

type PCMFormat uint

const (
	PCMFormatUndefined = PCMFormat(iota)
	PCMFormatU8
	PCMFormatS16LE
	PCMFormatS16BE
	PCMFormatS24LE
	PCMFormatS24BE
	PCMFormatS32LE
	PCMFormatS32BE
	PCMFormatS64LE
	PCMFormatS64BE
	PCMFormatFloat32LE
	PCMFormatFloat32BE
	PCMFormatFloat64LE
	PCMFormatFloat64BE
	EndOfPCMFormat
)

func (f PCMFormat) String() string {
	switch f {
	case PCMFormatUndefined:
		return "undefined"
	case PCMFormatU8:
		return "u8"
	case PCMFormatS16LE:
		return "s16le"
	case PCMFormatS16BE:
		return "s16be"
	case PCMFormatS24LE:
		return "s24le"
	case PCMFormatS24BE:
		return "s24be"
	case PCMFormatS32LE:
		return "s32le"
	case PCMFormatS32BE:
		return "s32be"
	case PCMFormatS64LE:
		return "s64le"
	case PCMFormatS64BE:
		return "s64be"
	case PCMFormatFloat32LE:
		return "f32le"
	case PCMFormatFloat32BE:
		return "f32be"
	case PCMFormatFloat64LE:
		return "f64le"
	case PCMFormatFloat64BE:
		return "f64be"
	default:
		return fmt.Sprintf("unknown_format_%d", uint(f))
	}
}

// Size returns the size of one sample in bytes.
func (f PCMFormat) Size() uint {
	switch f {
	case PCMFormatU8:
		return 1
	case PCMFormatS16LE, PCMFormatS16BE:
		return 2
	case PCMFormatS24LE, PCMFormatS24BE:
		return 3
	case PCMFormatS32LE, PCMFormatS32BE, PCMFormatFloat32LE, PCMFormatFloat32BE:
		return 4
	case PCMFormatS64LE, PCMFormatS64BE, PCMFormatFloat64LE, PCMFormatFloat64BE:
		return 8
	default:
		return 0
	}
}

func (f PCMFormat) IsFloat32() bool {
	return f == PCMFormatFloat32LE || f == PCMFormatFloat32BE
}

func (f PCMFormat) byteOrder() binary.ByteOrder {
	switch f {
	case PCMFormatFloat32BE, PCMFormatFloat64BE, PCMFormatS16BE, PCMFormatS24BE, PCMFormatS32BE, PCMFormatS64BE:
		return binary.BigEndian
	default:
		return binary.LittleEndian
	}
}

// DecodeFloat32 decodes samples of a float32 format into dst.
// len(src) must be exactly 4*len(dst).
func (f PCMFormat) DecodeFloat32(dst []float32, src []byte) error {
	if !f.IsFloat32() {
		return fmt.Errorf("format %s is not a float32 format", f)
	}
	if len(src) != len(dst)*4 {
		return fmt.Errorf("the size of the input does not match the output: %d != %d*4", len(src), len(dst))
	}
	order := f.byteOrder()
	for idx := range dst {
		dst[idx] = math.Float32frombits(order.Uint32(src[idx*4:]))
	}
	return nil
}

// EncodeFloat32 is the reverse of DecodeFloat32.
func (f PCMFormat) EncodeFloat32(dst []byte, src []float32) error {
	if !f.IsFloat32() {
		return fmt.Errorf("format %s is not a float32 format", f)
	}
	if len(dst) != len(src)*4 {
		return fmt.Errorf("the size of the output does not match the input: %d != %d*4", len(dst), len(src))
	}
	order := f.byteOrder()
	for idx, v := range src {
		order.PutUint32(dst[idx*4:], math.Float32bits(v))
	}
	return nil
}
