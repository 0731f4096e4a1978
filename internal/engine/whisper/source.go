//go:build whisper

package whisper

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"earshot/internal/audio"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"
)

// source yields fixed-size frames of 16-bit PCM.
type source interface {
	Read() ([]int16, error)
	Close() error
}

type fileSource struct {
	pcm   []int16
	frame int
	pos   int
}

func openFile(path string, frameSamples int) (source, error) {
	samples, err := audio.ReadMono16k(path)
	if err != nil {
		return nil, err
	}
	return &fileSource{pcm: audio.ToInt16(samples), frame: frameSamples}, nil
}

func (f *fileSource) Read() ([]int16, error) {
	if f.pos+f.frame > len(f.pcm) {
		return nil, io.EOF
	}
	out := f.pcm[f.pos : f.pos+f.frame]
	f.pos += f.frame
	return out, nil
}

func (f *fileSource) Close() error { return nil }

type micSource struct {
	stream *portaudio.Stream
	buf    []int16
	logger logrus.FieldLogger
}

func openMic(preferred string, sampleRate, frameSamples int, logger logrus.FieldLogger) (source, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	dev, err := SelectDevice(preferred)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}
	m := &micSource{buf: make([]int16, frameSamples), logger: logger}
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: frameSamples,
	}, &m.buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("start stream: %w", err)
	}
	m.stream = stream
	logger.Infof("listening on mic: %s @ %d Hz", dev.Name, sampleRate)
	return m, nil
}

func (m *micSource) Read() ([]int16, error) {
	for {
		err := m.stream.Read()
		if errors.Is(err, portaudio.InputOverflowed) {
			m.logger.Warn("input overflow")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stream read: %w", err)
		}
		return m.buf, nil
	}
}

func (m *micSource) Close() error {
	_ = m.stream.Stop()
	err := m.stream.Close()
	_ = portaudio.Terminate()
	return err
}

// SelectDevice picks the first input device whose name contains preferred,
// falling back to the system default.
func SelectDevice(preferred string) (*portaudio.DeviceInfo, error) {
	devs, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	if preferred != "" {
		for _, d := range devs {
			if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), strings.ToLower(preferred)) {
				return d, nil
			}
		}
	}
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		return def, nil
	}
	for _, d := range devs {
		if d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no input devices found")
}
