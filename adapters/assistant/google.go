// Package assistant adapts the Google Assistant embedded gRPC API to the
// domain stream contract. A fresh authenticated channel is opened per
// exchange because credentials are delegated per user request.
package assistant

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	embeddedpb "google.golang.org/genproto/googleapis/assistant/embedded/v1alpha2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/oauth"
	"google.golang.org/grpc/status"

	"github.com/circhioz/alexa-assistant/domain/entities"
	"github.com/circhioz/alexa-assistant/domain/repositories"
	"github.com/circhioz/alexa-assistant/internal/audio"
)

const defaultEndpoint = "embeddedassistant.googleapis.com:443"

// Config holds the remote endpoint and device model settings.
type Config struct {
	Endpoint string
	ModelID  string
}

// NewConfigFromEnv reads ASSISTANT_ENDPOINT and ASSISTANT_MODEL_ID.
func NewConfigFromEnv() Config {
	endpoint := os.Getenv("ASSISTANT_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return Config{
		Endpoint: endpoint,
		ModelID:  os.Getenv("ASSISTANT_MODEL_ID"),
	}
}

// GoogleAssistant implements repositories.Assistant over the embedded
// assistant bidirectional Assist stream.
type GoogleAssistant struct {
	endpoint string
	logger   *zap.Logger
}

var _ repositories.Assistant = (*GoogleAssistant)(nil)

func NewGoogleAssistant(config Config, logger *zap.Logger) (*GoogleAssistant, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("assistant endpoint is required")
	}
	return &GoogleAssistant{
		endpoint: config.Endpoint,
		logger:   logger,
	}, nil
}

// OpenStream dials the endpoint with the user's delegated token attached as
// per-RPC credentials and opens the Assist call. The context deadline set
// by the caller bounds the whole stream.
func (g *GoogleAssistant) OpenStream(ctx context.Context, accessToken string) (repositories.AssistStream, error) {
	if accessToken == "" {
		return nil, entities.ErrAccountNotLinked
	}

	perRPC := oauth.TokenSource{
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: accessToken,
			TokenType:   "Bearer",
		}),
	}

	conn, err := grpc.NewClient(g.endpoint,
		grpc.WithTransportCredentials(credentials.NewClientTLSFromCert(nil, "")),
		grpc.WithPerRPCCredentials(perRPC),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build assistant channel: %w", err)
	}

	g.logger.Info("Connecting to assistant endpoint", zap.String("endpoint", g.endpoint))

	client := embeddedpb.NewEmbeddedAssistantClient(conn)
	stream, err := client.Assist(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open assist stream: %w", err)
	}

	return &googleAssistStream{
		conn:   conn,
		stream: stream,
	}, nil
}

// Retryable reports whether a transport failure may be retried. Only a
// transport-level UNAVAILABLE qualifies; auth failures, invalid arguments
// and exceeded deadlines are terminal.
func (g *GoogleAssistant) Retryable(err error) bool {
	s, ok := status.FromError(err)
	if !ok {
		return false
	}
	if s.Code() == codes.Unavailable {
		g.logger.Warn("Assistant transport unavailable", zap.Error(err))
		return true
	}
	return false
}

type googleAssistStream struct {
	conn   *grpc.ClientConn
	stream embeddedpb.EmbeddedAssistant_AssistClient
}

func (s *googleAssistStream) Send(prompt *entities.AssistPrompt) error {
	config := &embeddedpb.AssistConfig{
		Type: &embeddedpb.AssistConfig_TextQuery{
			TextQuery: prompt.TextQuery,
		},
		AudioOutConfig: &embeddedpb.AudioOutConfig{
			Encoding:         embeddedpb.AudioOutConfig_LINEAR16,
			SampleRateHertz:  audio.SampleRate,
			VolumePercentage: int32(prompt.VolumePercent),
		},
		DialogStateIn: &embeddedpb.DialogStateIn{
			LanguageCode:      prompt.Locale,
			ConversationState: prompt.ConversationState,
			IsNewConversation: prompt.NewConversation,
		},
		DeviceConfig: &embeddedpb.DeviceConfig{
			DeviceId:      prompt.DeviceID,
			DeviceModelId: prompt.DeviceModelID,
		},
	}

	return s.stream.Send(&embeddedpb.AssistRequest{
		Type: &embeddedpb.AssistRequest_Config{Config: config},
	})
}

// Recv maps one wire response to a domain frame. io.EOF passes through
// untouched so the fold loop can detect clean stream completion.
func (s *googleAssistStream) Recv() (*entities.AssistFrame, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		return nil, err
	}

	frame := &entities.AssistFrame{}
	if out := resp.GetAudioOut(); out != nil {
		frame.Audio = out.GetAudioData()
	}
	if dialog := resp.GetDialogStateOut(); dialog != nil {
		frame.ConversationState = dialog.GetConversationState()
		frame.VolumePercent = int(dialog.GetVolumePercentage())
		frame.DisplayText = dialog.GetSupplementalDisplayText()
		switch dialog.GetMicrophoneMode() {
		case embeddedpb.DialogStateOut_DIALOG_FOLLOW_ON:
			frame.MicMode = entities.MicrophoneFollowOn
		case embeddedpb.DialogStateOut_CLOSE_MICROPHONE:
			frame.MicMode = entities.MicrophoneClosed
		}
	}
	return frame, nil
}

func (s *googleAssistStream) CloseSend() error {
	return s.stream.CloseSend()
}

func (s *googleAssistStream) Close() error {
	return s.conn.Close()
}
