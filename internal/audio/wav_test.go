package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(t *testing.T, path string, rate, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestReadMono16kDownmixesAndResamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	// 8 kHz stereo, 4 frames: left and right average to 0, 8192, 16384, 8192.
	writeWAV(t, path, 8000, 2, []int{0, 0, 8192, 8192, 16384, 16384, 0, 16384})

	samples, err := ReadMono16k(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(samples) != 8 {
		t.Fatalf("len = %d want 8", len(samples))
	}
	if samples[0] != 0 || samples[2] != 0.25 {
		t.Fatalf("unexpected samples %v", samples)
	}
}

func TestReadMono16kRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("definitely not riff"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadMono16k(path); !errors.Is(err, ErrNotWAV) {
		t.Fatalf("expected ErrNotWAV, got %v", err)
	}
}

func TestResampleLinearLength(t *testing.T) {
	in := []float32{0, 1, 2, 3}
	if out := ResampleLinear(in, 16000, 8000); len(out) != 2 {
		t.Fatalf("downsample length got %d", len(out))
	}
	if out := ResampleLinear(in, 8000, 16000); len(out) != 8 {
		t.Fatalf("upsample length got %d", len(out))
	}
}

func TestResampleLinearEnds(t *testing.T) {
	out := ResampleLinear([]float32{0, 10}, 1000, 2000)
	if out[0] != 0 || out[len(out)-1] != 10 {
		t.Fatalf("endpoints not preserved: %v", out)
	}
}

func TestInt16RoundTripClips(t *testing.T) {
	pcm := ToInt16([]float32{0, 0.5, 2, -2})
	if pcm[0] != 0 || pcm[1] != 16384 || pcm[2] != 32767 || pcm[3] != -32768 {
		t.Fatalf("pcm = %v", pcm)
	}
	if f := ToFloat32([]int16{16384}); f[0] != 0.5 {
		t.Fatalf("float = %v", f)
	}
}
