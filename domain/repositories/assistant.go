package repositories

import (
	"context"

	"github.com/circhioz/alexa-assistant/domain/entities"
)

// Assistant abstracts the remote conversational service. One stream is
// opened per exchange; the delegated access token authenticates the call.
type Assistant interface {
	// OpenStream dials the remote endpoint and opens a bidirectional
	// stream bounded by the deadline on ctx.
	OpenStream(ctx context.Context, accessToken string) (AssistStream, error)
	// Retryable classifies a transport failure: true means the whole
	// exchange may be attempted again on a fresh stream.
	Retryable(err error) bool
}

// AssistStream is one live exchange with the remote service. The caller
// sends exactly one prompt, then receives frames until io.EOF.
type AssistStream interface {
	Send(prompt *entities.AssistPrompt) error
	// Recv returns the next frame in arrival order, io.EOF when the
	// remote closed the stream cleanly.
	Recv() (*entities.AssistFrame, error)
	// CloseSend signals that no further prompts follow.
	CloseSend() error
	// Close releases the underlying connection.
	Close() error
}
