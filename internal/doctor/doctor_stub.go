//go:build !whisper

package doctor

func checkPortAudio() Result {
	return Result{Name: "portaudio", Pass: false, Detail: "build with -tags whisper"}
}
