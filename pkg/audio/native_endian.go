package audio

import (
	"encoding/binary"
	"fmt"
)

// NativeFloat32Format returns the float32 PCM format matching the byte order
// of this machine, so that []float32 memory may be read as PCM bytes as is.
func NativeFloat32Format() (PCMFormat, error) {
	v := binary.NativeEndian.Uint16([]byte{1, 2})
	switch v {
	case 0x0102:
		return PCMFormatFloat32BE, nil
	case 0x0201:
		return PCMFormatFloat32LE, nil
	}
	return PCMFormatUndefined, fmt.Errorf("unable to detect endianness of this computer")
}
