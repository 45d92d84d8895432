package audio

import (
	"encoding/binary"
	"math"
)

// QuantizeFrame converts a frame of 32-bit float little-endian PCM into
// 16-bit signed little-endian PCM by linear scaling (×32768) with overflow
// truncated to the low 16 bits. The scaling must stay bit-compatible with the
// gateway's expectations, so no clamping or dithering is applied. A trailing
// partial sample is dropped.
func QuantizeFrame(f32le []byte) []byte {
	samples := len(f32le) / 4
	out := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		bits := binary.LittleEndian.Uint32(f32le[i*4:])
		sample := quantizeSample(math.Float32frombits(bits))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out
}

func quantizeSample(f float32) int16 {
	scaled := float64(f) * 32768
	if scaled >= math.MaxInt32 || scaled <= math.MinInt32 || scaled != scaled {
		return 0
	}
	return int16(int32(scaled))
}
