// Package audio holds the PCM helpers applied to every audio chunk the
// assistant streams back: sample-width alignment and logarithmic volume
// scaling.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/circhioz/alexa-assistant/domain/entities"
)

const (
	// SampleRate and SampleWidth describe the LINEAR16 stream requested
	// from the assistant: 16 kHz mono, 2-byte signed little-endian.
	SampleRate  = 16000
	SampleWidth = 2
)

// Align right-pads buf with zero bytes so its length is a multiple of
// sampleWidth. Buffers already aligned come back unchanged.
func Align(buf []byte, sampleWidth int) []byte {
	remainder := len(buf) % sampleWidth
	if remainder == 0 {
		return buf
	}
	padded := make([]byte, len(buf)+sampleWidth-remainder)
	copy(padded, buf)
	return padded
}

// NormalizeVolume scales the amplitude of 16-bit signed little-endian
// samples by 2^(volumePercent/100) - 1, so 100% leaves the audio unchanged
// up to integer truncation, 50% scales by ~0.414 and 75% by ~0.681.
// Only 2-byte samples are supported; volumePercent must be within [1,100].
func NormalizeVolume(buf []byte, volumePercent int, sampleWidth int) ([]byte, error) {
	if sampleWidth != 2 {
		return nil, fmt.Errorf("%w: %d", entities.ErrUnsupportedSampleWidth, sampleWidth)
	}
	if volumePercent < entities.MinVolume || volumePercent > entities.MaxVolume {
		return nil, fmt.Errorf("%w: %d", entities.ErrVolumeOutOfRange, volumePercent)
	}
	if volumePercent == entities.MaxVolume {
		return buf, nil
	}

	scale := math.Pow(2, float64(volumePercent)/100) - 1

	out := make([]byte, len(buf))
	for i := 0; i+1 < len(buf); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(buf[i : i+2]))
		scaled := int16(float64(sample) * scale) // truncates toward zero
		binary.LittleEndian.PutUint16(out[i:i+2], uint16(scaled))
	}
	return out, nil
}

// Scale exposes the volume curve for inspection and tests.
func Scale(volumePercent int) float64 {
	return math.Pow(2, float64(volumePercent)/100) - 1
}
