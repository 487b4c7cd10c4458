package domain

import "time"

// Utterance is one contiguous span of detected speech at the working
// sample rate.
type Utterance struct {
	ID      string
	Samples []float32
}

// Transcript is the recognized text of an utterance. Err is set when
// recognition failed for this utterance only.
type Transcript struct {
	UtteranceID string
	Text        string
	Err         error
}

// SpeechAudio is synthesized 16-bit mono PCM ready for playback.
type SpeechAudio struct {
	PCM        []int16
	SampleRate int
}

func (a SpeechAudio) Duration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(a.PCM)) * time.Second / time.Duration(a.SampleRate)
}
