package api

// AssistRequest is the direct assist API payload. Either Text or Audio
// must be set; Audio is base64-encoded PCM and is transcribed before the
// exchange runs.
type AssistRequest struct {
	Text        string `json:"text,omitempty"`
	Audio       string `json:"audio,omitempty"`
	SampleRate  int    `json:"sample_rate,omitempty"`
	Encoding    string `json:"encoding,omitempty"`
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	Locale      string `json:"locale,omitempty"`
	AccessToken string `json:"access_token"`
}

// AssistResponse carries the aggregated exchange result.
type AssistResponse struct {
	Text           string `json:"text,omitempty"`
	Transcript     string `json:"transcript,omitempty"`
	MicrophoneMode string `json:"microphone_mode"`
	Volume         int    `json:"volume,omitempty"`
	AudioBytes     int    `json:"audio_bytes"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
