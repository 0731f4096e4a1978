// Package audio decodes WAV input into the 16 kHz mono PCM the local
// recognizer expects.
package audio

import (
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// TargetRate is the sample rate whisper.cpp models are trained on.
const TargetRate = 16000

// ErrNotWAV is returned for files the decoder rejects.
var ErrNotWAV = errors.New("not a valid WAV file")

// ReadMono16k decodes path, downmixes to mono and resamples to TargetRate.
func ReadMono16k(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotWAV)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	mono := Downmix(buf, int(dec.BitDepth))
	return ResampleLinear(mono, buf.Format.SampleRate, TargetRate), nil
}

// Downmix averages interleaved channels into normalized float32 samples.
func Downmix(buf *goaudio.IntBuffer, bitDepth int) []float32 {
	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float32(int64(1) << (bitDepth - 1))
	frames := len(buf.Data) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < channels; c++ {
			sum += buf.Data[i*channels+c]
		}
		out[i] = float32(sum) / float32(channels) / scale
	}
	return out
}

// ToInt16 converts normalized samples to 16-bit PCM, clipping out-of-range values.
func ToInt16(in []float32) []int16 {
	out := make([]int16, len(in))
	for i, s := range in {
		v := s * 32768
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}

// ToFloat32 normalizes 16-bit PCM.
func ToFloat32(in []int16) []float32 {
	out := make([]float32, len(in))
	for i, s := range in {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// ResampleLinear converts between sample rates by linear interpolation.
func ResampleLinear(in []float32, srcSR, dstSR int) []float32 {
	if srcSR == dstSR || srcSR <= 0 || len(in) == 0 {
		out := make([]float32, len(in))
		copy(out, in)
		return out
	}
	ratio := float64(dstSR) / float64(srcSR)
	outLen := int(float64(len(in))*ratio + 0.9999)
	out := make([]float32, outLen)
	for i := range out {
		pos := float64(i) / ratio
		idx := int(pos)
		if idx >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = in[idx]*(1-frac) + in[idx+1]*frac
	}
	return out
}
