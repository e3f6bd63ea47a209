package texttospeech

import "github.com/koscakluka/tela-core/core/audio"

// SpeechEndedReport accompanies the speech-ended callback once all requested
// speech has been delivered.
type SpeechEndedReport struct{}

type TextToSpeechOptions struct {
	// SpeechAudioCallback is called for every audio chunk the provider
	// delivers.
	SpeechAudioCallback func(audio []byte)
	// SpeechEndedCallback is called once, after the last chunk of a fully
	// synthesized utterance. It is not called for cancelled requests.
	SpeechEndedCallback func(report SpeechEndedReport)
	// ErrorCallback is called when generation fails mid-stream.
	ErrorCallback func(err error)

	Voice        string
	EncodingInfo audio.EncodingInfo
}

type TextToSpeechOption func(*TextToSpeechOptions)

func WithSpeechAudioCallback(callback func(audio []byte)) TextToSpeechOption {
	return func(o *TextToSpeechOptions) { o.SpeechAudioCallback = callback }
}

func WithSpeechEndedCallback(callback func(report SpeechEndedReport)) TextToSpeechOption {
	return func(o *TextToSpeechOptions) { o.SpeechEndedCallback = callback }
}

func WithErrorCallback(callback func(err error)) TextToSpeechOption {
	return func(o *TextToSpeechOptions) { o.ErrorCallback = callback }
}

func WithVoice(voice string) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		if voice != "" {
			o.Voice = voice
		}
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		if encodingInfo.IsZero() {
			return
		}
		o.EncodingInfo = encodingInfo
	}
}
