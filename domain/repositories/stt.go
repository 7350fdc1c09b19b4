package repositories

import "context"

// AudioConfig describes raw utterance audio submitted on the direct API
// path.
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}

// Transcriber converts raw utterance audio to text before the exchange is
// built. The skill webhook path never needs it; the direct API path does.
type Transcriber interface {
	TranscribeAudio(ctx context.Context, audioData []byte, config AudioConfig) (string, error)
}
