// Package encoder shells out to the LAME binary to transcode the
// assistant's PCM reply into an MP3 the voice platform can stream.
package encoder

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"go.uber.org/zap"

	"github.com/circhioz/alexa-assistant/domain/repositories"
)

const defaultBinary = "lame"

// LameEncoder invokes LAME in joint-stereo 48 kbit/s mode, the bitrate the
// voice platform accepts for streamed audio.
type LameEncoder struct {
	binary string
	logger *zap.Logger
}

var _ repositories.AudioEncoder = (*LameEncoder)(nil)

// NewLameEncoder reads the binary path from LAME_PATH, falling back to
// whatever "lame" resolves to on PATH.
func NewLameEncoder(logger *zap.Logger) *LameEncoder {
	binary := os.Getenv("LAME_PATH")
	if binary == "" {
		binary = defaultBinary
	}
	return &LameEncoder{binary: binary, logger: logger}
}

// Encode implements repositories.AudioEncoder
func (e *LameEncoder) Encode(ctx context.Context, pcmPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, e.binary, "-m", "j", "-b", "48", pcmPath, outputPath)

	output, err := cmd.CombinedOutput()
	if err != nil {
		e.logger.Error("LAME encoding failed",
			zap.String("output", string(output)),
			zap.Error(err))
		return fmt.Errorf("audio encoding failed: %w", err)
	}

	e.logger.Debug("LAME encoding finished", zap.String("output", string(output)))
	return nil
}
