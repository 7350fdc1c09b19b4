package repositories

import "context"

// DeviceRegistrar performs the one-time registration handshake for a
// never-seen device identity against the remote device API.
type DeviceRegistrar interface {
	Register(ctx context.Context, accessToken, deviceID string) error
}

// AudioEncoder transcodes a PCM file into a container the voice platform
// can stream. The implementation shells out to an external encoder.
type AudioEncoder interface {
	Encode(ctx context.Context, pcmPath, outputPath string) error
}

// ArtifactStore persists an encoded audio reply and hands back a
// short-lived playable URL.
type ArtifactStore interface {
	Upload(ctx context.Context, key, path string) error
	PresignedURL(ctx context.Context, key string) (string, error)
}
