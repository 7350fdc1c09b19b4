package usecase

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/circhioz/alexa-assistant/domain/entities"
	"github.com/circhioz/alexa-assistant/domain/repositories"
	"github.com/circhioz/alexa-assistant/internal/audio"
)

const (
	defaultDeadline    = 185 * time.Second
	defaultMaxAttempts = 3
)

// AssistConfig holds the per-exchange tunables.
type AssistConfig struct {
	ModelID       string
	DefaultLocale string
	Deadline      time.Duration
	MaxAttempts   int
	// NormalizeAudio applies the user's persisted volume to the PCM
	// stream. The audio-artifact reply variant leaves the stream at
	// service volume instead.
	NormalizeAudio bool
}

// NewAssistConfigFromEnv reads ASSISTANT_MODEL_ID, DEFAULT_LOCALE,
// ASSISTANT_DEADLINE_SECONDS and NORMALIZE_AUDIO.
func NewAssistConfigFromEnv() AssistConfig {
	config := AssistConfig{
		ModelID:       os.Getenv("ASSISTANT_MODEL_ID"),
		DefaultLocale: os.Getenv("DEFAULT_LOCALE"),
		Deadline:      defaultDeadline,
		MaxAttempts:   defaultMaxAttempts,
	}
	if config.DefaultLocale == "" {
		config.DefaultLocale = "en-US"
	}
	if secs, err := strconv.Atoi(os.Getenv("ASSISTANT_DEADLINE_SECONDS")); err == nil && secs > 0 {
		config.Deadline = time.Duration(secs) * time.Second
	}
	if os.Getenv("NORMALIZE_AUDIO") == "true" {
		config.NormalizeAudio = true
	}
	return config
}

// ExchangeEvent is published to the monitor hub at the exchange's
// well-defined state transitions.
type ExchangeEvent struct {
	Type        string `json:"type"`
	ExchangeID  string `json:"exchange_id"`
	SessionID   string `json:"session_id"`
	Attempt     int    `json:"attempt,omitempty"`
	Query       string `json:"query,omitempty"`
	DisplayText string `json:"display_text,omitempty"`
	MicMode     string `json:"mic_mode,omitempty"`
	Volume      int    `json:"volume,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Events receives exchange lifecycle events. Implementations must not
// block; the hub fans events out asynchronously.
type Events interface {
	Publish(event ExchangeEvent)
}

// AssistService drives one full streamed exchange per utterance: request
// building, the bounded retry loop around the stream, frame aggregation,
// and the single commit point for continuation state and volume.
type AssistService struct {
	assistant  repositories.Assistant
	sessions   repositories.SessionStore
	persistent repositories.PersistentStore
	registrar  repositories.DeviceRegistrar
	events     Events
	config     AssistConfig
	logger     *zap.Logger
}

// NewAssistService creates the core exchange service. events may be nil.
func NewAssistService(
	assistant repositories.Assistant,
	sessions repositories.SessionStore,
	persistent repositories.PersistentStore,
	registrar repositories.DeviceRegistrar,
	events Events,
	config AssistConfig,
	logger *zap.Logger,
) *AssistService {
	if config.Deadline == 0 {
		config.Deadline = defaultDeadline
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = defaultMaxAttempts
	}
	if config.DefaultLocale == "" {
		config.DefaultLocale = "en-US"
	}
	return &AssistService{
		assistant:  assistant,
		sessions:   sessions,
		persistent: persistent,
		registrar:  registrar,
		events:     events,
		config:     config,
		logger:     logger,
	}
}

// Assist performs one complete exchange for the utterance and returns the
// aggregated outcome. Continuation state and volume are persisted only
// after the stream completed without error; a failed attempt leaves both
// stores untouched.
func (s *AssistService) Assist(ctx context.Context, utt entities.Utterance) (*entities.ExchangeOutcome, error) {
	if utt.AccessToken == "" {
		return nil, entities.ErrAccountNotLinked
	}

	exchangeID := uuid.NewString()
	logger := s.logger.With(
		zap.String("exchange_id", exchangeID),
		zap.String("session_id", utt.SessionID))
	logger.Info("Processing utterance", zap.String("query", utt.Text))

	deviceID := entities.DeviceIdentity(utt.UserID)
	if err := s.ensureRegistered(ctx, utt, deviceID, logger); err != nil {
		return nil, err
	}

	volume, err := s.persistent.GetInt(ctx, utt.UserID, repositories.AttributeVolume, entities.DefaultVolume)
	if err != nil {
		return nil, fmt.Errorf("failed to read persisted volume: %w", err)
	}
	volume = entities.ClampVolume(volume)

	prompt := s.buildPrompt(utt, deviceID, volume)

	s.publish(ExchangeEvent{
		Type:       "exchange_started",
		ExchangeID: exchangeID,
		SessionID:  utt.SessionID,
		Query:      utt.Text,
	})

	var outcome *entities.ExchangeOutcome
	for attempt := 1; ; attempt++ {
		outcome, err = s.attempt(ctx, utt.AccessToken, prompt, volume)
		if err == nil {
			break
		}
		if s.assistant.Retryable(err) && attempt < s.config.MaxAttempts {
			logger.Warn("Transient stream failure, retrying exchange",
				zap.Int("attempt", attempt),
				zap.Error(err))
			s.publish(ExchangeEvent{
				Type:       "attempt_failed",
				ExchangeID: exchangeID,
				SessionID:  utt.SessionID,
				Attempt:    attempt,
				Error:      err.Error(),
			})
			continue
		}
		logger.Error("Exchange failed", zap.Int("attempt", attempt), zap.Error(err))
		s.publish(ExchangeEvent{
			Type:       "exchange_failed",
			ExchangeID: exchangeID,
			SessionID:  utt.SessionID,
			Attempt:    attempt,
			Error:      err.Error(),
		})
		return nil, err
	}

	// The only commit point: the stream completed cleanly.
	if len(outcome.ConversationState) > 0 {
		s.sessions.SetConversationState(utt.SessionID, outcome.ConversationState)
	}
	if outcome.VolumePercent != 0 {
		clamped := entities.ClampVolume(outcome.VolumePercent)
		logger.Info("Persisting volume update", zap.Int("volume", clamped))
		if err := s.persistent.Set(ctx, utt.UserID, repositories.AttributeVolume, clamped, true); err != nil {
			return nil, fmt.Errorf("failed to persist volume: %w", err)
		}
		outcome.VolumePercent = clamped
	}

	logger.Info("Exchange completed",
		zap.String("mic_mode", string(outcome.MicMode)),
		zap.Int("audio_bytes", len(outcome.Audio)))
	s.publish(ExchangeEvent{
		Type:        "exchange_completed",
		ExchangeID:  exchangeID,
		SessionID:   utt.SessionID,
		DisplayText: outcome.DisplayText,
		MicMode:     string(outcome.MicMode),
		Volume:      outcome.VolumePercent,
	})

	return outcome, nil
}

// SeedConversationState primes the session store with continuation state
// carried in the platform envelope, so exchanges survive a process that
// did not serve the previous turn.
func (s *AssistService) SeedConversationState(sessionID string, state []byte) {
	if len(state) > 0 {
		s.sessions.SetConversationState(sessionID, state)
	}
}

// EndSession discards conversation state when the platform closes the
// session.
func (s *AssistService) EndSession(sessionID string) {
	s.sessions.Drop(sessionID)
}

// DefaultLocale exposes the configured locale fallback.
func (s *AssistService) DefaultLocale() string {
	return s.config.DefaultLocale
}

// ensureRegistered runs the registration gate when the derived device
// identity differs from the last persisted one. The new identity is
// persisted only after a successful handshake.
func (s *AssistService) ensureRegistered(ctx context.Context, utt entities.Utterance, deviceID string, logger *zap.Logger) error {
	lastDeviceID, err := s.persistent.GetString(ctx, utt.UserID, repositories.AttributeDeviceID)
	if err != nil {
		return fmt.Errorf("failed to read persisted device identity: %w", err)
	}
	if lastDeviceID == deviceID {
		return nil
	}

	logger.Info("Unknown device identity, running registration gate")
	if err := s.registrar.Register(ctx, utt.AccessToken, deviceID); err != nil {
		return err
	}
	if err := s.persistent.Set(ctx, utt.UserID, repositories.AttributeDeviceID, deviceID, true); err != nil {
		return fmt.Errorf("failed to persist device identity: %w", err)
	}
	logger.Info("Device identity registered and persisted")
	return nil
}

// buildPrompt assembles the single outbound request. An empty stored
// continuation blob declares a new conversation; otherwise the blob is
// carried verbatim.
func (s *AssistService) buildPrompt(utt entities.Utterance, deviceID string, volume int) *entities.AssistPrompt {
	locale := utt.Locale
	if locale == "" {
		locale = s.config.DefaultLocale
	}

	state := s.sessions.GetConversationState(utt.SessionID)

	return &entities.AssistPrompt{
		TextQuery:         utt.Text,
		Locale:            locale,
		ConversationState: state,
		NewConversation:   len(state) == 0,
		DeviceID:          deviceID,
		DeviceModelID:     s.config.ModelID,
		VolumePercent:     volume,
	}
}

// attempt performs one full stream exchange. All aggregation happens on
// locals; nothing is persisted here, so a failed attempt leaks no state
// into the retry or into storage.
func (s *AssistService) attempt(ctx context.Context, accessToken string, prompt *entities.AssistPrompt, volume int) (*entities.ExchangeOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Deadline)
	defer cancel()

	stream, err := s.assistant.OpenStream(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Send(prompt); err != nil {
		return nil, fmt.Errorf("failed to send assist request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, fmt.Errorf("failed to close send side: %w", err)
	}

	outcome := &entities.ExchangeOutcome{MicMode: entities.MicrophoneClosed}

	for {
		frame, err := stream.Recv()
		if err == io.EOF {
			return outcome, nil
		}
		if err != nil {
			return nil, err
		}

		if len(frame.Audio) > 0 {
			buf := audio.Align(frame.Audio, audio.SampleWidth)
			if s.config.NormalizeAudio {
				buf, err = audio.NormalizeVolume(buf, volume, audio.SampleWidth)
				if err != nil {
					return nil, err
				}
			}
			outcome.Audio = append(outcome.Audio, buf...)
		}
		if len(frame.ConversationState) > 0 {
			outcome.ConversationState = frame.ConversationState
		}
		if frame.VolumePercent != 0 {
			outcome.VolumePercent = frame.VolumePercent
		}
		switch frame.MicMode {
		case entities.MicrophoneFollowOn, entities.MicrophoneOpen:
			outcome.MicMode = entities.MicrophoneOpen
		case entities.MicrophoneClosed:
			outcome.MicMode = entities.MicrophoneClosed
		}
		if frame.DisplayText != "" {
			outcome.DisplayText = frame.DisplayText
		}
	}
}

func (s *AssistService) publish(event ExchangeEvent) {
	if s.events != nil {
		s.events.Publish(event)
	}
}
