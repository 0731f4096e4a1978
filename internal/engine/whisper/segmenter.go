// Package whisper is a local speech engine: voice activity detection cuts
// microphone or WAV audio into utterance slots that whisper.cpp transcribes.
// The recognizer itself needs the whisper build tag.
package whisper

import "encoding/binary"

// cut is audio handed to the transcriber. Interim cuts are the utterance so
// far; a final cut closes the slot.
type cut struct {
	pcm   []int16
	final bool
}

// segmenter turns VAD-labelled frames into cuts. Time is counted in frames so
// file input and live input behave the same.
type segmenter struct {
	frameMS        int
	silenceMS      int
	maxSegmentMS   int
	partialFlushMS int
	interim        bool

	inSpeech     bool
	chunk        []int16
	speechMS     int
	silentMS     int
	sinceFlushMS int
}

func (s *segmenter) push(frame []int16, voice bool) (cut, bool) {
	if voice && !s.inSpeech {
		s.inSpeech = true
		s.chunk = s.chunk[:0]
		s.speechMS, s.silentMS, s.sinceFlushMS = 0, 0, 0
	}
	if !s.inSpeech {
		return cut{}, false
	}
	s.chunk = append(s.chunk, frame...)
	s.speechMS += s.frameMS
	s.sinceFlushMS += s.frameMS
	if voice {
		s.silentMS = 0
	} else {
		s.silentMS += s.frameMS
	}

	if s.silentMS >= s.silenceMS || (s.maxSegmentMS > 0 && s.speechMS >= s.maxSegmentMS) {
		s.inSpeech = false
		return cut{pcm: s.copyChunk(), final: true}, true
	}
	if s.interim && s.partialFlushMS > 0 && voice && s.sinceFlushMS >= s.partialFlushMS {
		s.sinceFlushMS = 0
		return cut{pcm: s.copyChunk()}, true
	}
	return cut{}, false
}

// flush closes an utterance still open when input ends.
func (s *segmenter) flush() (cut, bool) {
	if !s.inSpeech || len(s.chunk) == 0 {
		return cut{}, false
	}
	s.inSpeech = false
	return cut{pcm: s.copyChunk(), final: true}, true
}

func (s *segmenter) copyChunk() []int16 {
	out := make([]int16, len(s.chunk))
	copy(out, s.chunk)
	return out
}

// pcmBytes encodes samples as little-endian 16-bit PCM for the VAD.
func pcmBytes(dst []byte, frame []int16) []byte {
	dst = dst[:0]
	for _, s := range frame {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
	}
	return dst
}

// whisperLang maps a BCP-47 tag to the language code whisper.cpp expects.
func whisperLang(tag string) string {
	for i, r := range tag {
		if r == '-' || r == '_' {
			return tag[:i]
		}
	}
	if tag == "" {
		return "auto"
	}
	return tag
}
