package stt

import (
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
)

func TestAudioEncoding(t *testing.T) {
	cases := []struct {
		in      string
		want    speechpb.RecognitionConfig_AudioEncoding
		wantErr bool
	}{
		{"LINEAR16", speechpb.RecognitionConfig_LINEAR16, false},
		{"WAV", speechpb.RecognitionConfig_LINEAR16, false},
		{"FLAC", speechpb.RecognitionConfig_FLAC, false},
		{"OGG_OPUS", speechpb.RecognitionConfig_OGG_OPUS, false},
		{"MP3", speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, true},
		{"", speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, true},
	}

	for _, c := range cases {
		got, err := audioEncoding(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("audioEncoding(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("audioEncoding(%q) failed: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("audioEncoding(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
