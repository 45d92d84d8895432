package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestQuantizeSampleScaling(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{0.5, 16384},
		{0.25, 8192},
		{-0.5, -16384},
		{-1, -32768},
		{1.0 / 32768, 1},
		{-1.0 / 32768, -1},
		// Full-scale positive overflows int16 and wraps, matching the wire
		// encoding the gateway was trained against.
		{1, -32768},
		{1.5, -16384},
	}

	for _, tc := range cases {
		if got := quantizeSample(tc.in); got != tc.want {
			t.Fatalf("quantizeSample(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestQuantizeSampleGarbageInput(t *testing.T) {
	t.Parallel()

	if got := quantizeSample(float32(math.NaN())); got != 0 {
		t.Fatalf("expected NaN to quantize to 0, got %d", got)
	}
	if got := quantizeSample(float32(math.Inf(1))); got != 0 {
		t.Fatalf("expected +Inf to quantize to 0, got %d", got)
	}
}

func TestQuantizeFrame(t *testing.T) {
	t.Parallel()

	in := make([]byte, 0, 12)
	for _, f := range []float32{0.5, -1, 0} {
		in = binary.LittleEndian.AppendUint32(in, math.Float32bits(f))
	}

	out := QuantizeFrame(in)
	if len(out) != 6 {
		t.Fatalf("unexpected output length: %d", len(out))
	}

	want := []int16{16384, -32768, 0}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(out[i*2:]))
		if got != w {
			t.Fatalf("sample %d = %d, want %d", i, got, w)
		}
	}
}

func TestQuantizeFrameDropsPartialSample(t *testing.T) {
	t.Parallel()

	in := make([]byte, 7)
	if got := QuantizeFrame(in); len(got) != 2 {
		t.Fatalf("expected one quantized sample, got %d bytes", len(got))
	}
}
