package usecase

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/circhioz/alexa-assistant/domain/entities"
	"github.com/circhioz/alexa-assistant/domain/repositories"
	"github.com/circhioz/alexa-assistant/internal/audio"
)

const cardTitle = "Google Assistant"

// Reply is the platform-facing result of one exchange, ready to be
// serialized into the response envelope.
type Reply struct {
	SpeechText string // plain text speech
	SpeechSSML string // takes precedence over SpeechText when set
	CardTitle  string
	CardText   string
	EndSession bool
}

// ReplyAssembler converts an aggregated exchange outcome into a Reply.
// Implementations only read the outcome; they never touch session state.
type ReplyAssembler interface {
	Assemble(ctx context.Context, deviceID string, outcome *entities.ExchangeOutcome) (*Reply, error)
}

// TextReplyAssembler speaks the assistant's supplemental display text
// directly. Used where no audio artifact pipeline is deployed.
type TextReplyAssembler struct{}

var _ ReplyAssembler = (*TextReplyAssembler)(nil)

func NewTextReplyAssembler() *TextReplyAssembler {
	return &TextReplyAssembler{}
}

// Assemble implements ReplyAssembler
func (a *TextReplyAssembler) Assemble(ctx context.Context, deviceID string, outcome *entities.ExchangeOutcome) (*Reply, error) {
	reply := &Reply{
		SpeechText: outcome.DisplayText,
		EndSession: !outcome.KeepSessionOpen(),
	}
	if outcome.DisplayText != "" {
		reply.CardTitle = cardTitle
		reply.CardText = outcome.DisplayText
	}
	return reply, nil
}

// AudioReplyAssembler turns the streamed PCM into a playable artifact:
// WAV container, external MP3 encode, upload, short-lived URL embedded in
// an SSML audio tag.
type AudioReplyAssembler struct {
	encoder repositories.AudioEncoder
	store   repositories.ArtifactStore
	workDir string
	logger  *zap.Logger
}

var _ ReplyAssembler = (*AudioReplyAssembler)(nil)

func NewAudioReplyAssembler(encoder repositories.AudioEncoder, store repositories.ArtifactStore, logger *zap.Logger) *AudioReplyAssembler {
	workDir := os.Getenv("AUDIO_WORK_DIR")
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &AudioReplyAssembler{
		encoder: encoder,
		store:   store,
		workDir: workDir,
		logger:  logger,
	}
}

// Assemble implements ReplyAssembler
func (a *AudioReplyAssembler) Assemble(ctx context.Context, deviceID string, outcome *entities.ExchangeOutcome) (*Reply, error) {
	if len(outcome.Audio) == 0 {
		return nil, fmt.Errorf("assistant response carried no audio")
	}

	wavPath := filepath.Join(a.workDir, deviceID+".wav")
	mp3Path := filepath.Join(a.workDir, deviceID+".mp3")
	defer os.Remove(wavPath)
	defer os.Remove(mp3Path)

	f, err := os.Create(wavPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create response file: %w", err)
	}
	if err := audio.WriteWAV(f, outcome.Audio); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write response audio: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush response audio: %w", err)
	}

	if err := a.encoder.Encode(ctx, wavPath, mp3Path); err != nil {
		return nil, err
	}

	// One artifact per device; each exchange overwrites the previous one.
	if err := a.store.Upload(ctx, deviceID, mp3Path); err != nil {
		return nil, err
	}
	url, err := a.store.PresignedURL(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Audio reply ready", zap.String("device_id", deviceID))

	reply := &Reply{
		SpeechSSML: fmt.Sprintf(`<speak><audio src="%s"/></speak>`, escapeXML(url)),
		EndSession: !outcome.KeepSessionOpen(),
	}
	if outcome.DisplayText != "" {
		reply.CardTitle = cardTitle
		reply.CardText = outcome.DisplayText
	}
	return reply, nil
}

func escapeXML(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}
