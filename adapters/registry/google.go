// Package registry implements the one-time device registration handshake
// against the Google Assistant device API.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/circhioz/alexa-assistant/domain/entities"
	"github.com/circhioz/alexa-assistant/domain/repositories"
)

const defaultDeviceAPIURL = "https://embeddedassistant.googleapis.com/v1alpha2"

// Config holds the project and device model the bridge registers under.
type Config struct {
	DeviceAPIURL string
	ProjectID    string
	ModelID      string
	Nickname     string
}

// NewConfigFromEnv reads ASSISTANT_PROJECT_ID, ASSISTANT_MODEL_ID and
// optional DEVICE_API_URL.
func NewConfigFromEnv() Config {
	apiURL := os.Getenv("DEVICE_API_URL")
	if apiURL == "" {
		apiURL = defaultDeviceAPIURL
	}
	return Config{
		DeviceAPIURL: apiURL,
		ProjectID:    os.Getenv("ASSISTANT_PROJECT_ID"),
		ModelID:      os.Getenv("ASSISTANT_MODEL_ID"),
		Nickname:     "Alexa Assistant",
	}
}

// GoogleRegistrar checks registration status for a device identity and
// registers it when absent.
type GoogleRegistrar struct {
	config Config
	logger *zap.Logger
}

var _ repositories.DeviceRegistrar = (*GoogleRegistrar)(nil)

func NewGoogleRegistrar(config Config, logger *zap.Logger) (*GoogleRegistrar, error) {
	if config.ProjectID == "" || config.ModelID == "" {
		return nil, fmt.Errorf("project ID and model ID are required for device registration")
	}
	return &GoogleRegistrar{config: config, logger: logger}, nil
}

type registerPayload struct {
	ID         string `json:"id"`
	ModelID    string `json:"model_id"`
	ClientType string `json:"client_type"`
	Nickname   string `json:"nickname"`
}

// Register implements repositories.DeviceRegistrar. A 404 on the status
// probe means the device is unknown and gets registered; any other non-200
// status on either call fails the exchange with a RegistrationError.
func (r *GoogleRegistrar) Register(ctx context.Context, accessToken, deviceID string) error {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	baseURL := fmt.Sprintf("%s/projects/%s/devices", r.config.DeviceAPIURL, r.config.ProjectID)
	deviceURL := fmt.Sprintf("%s/%s", baseURL, deviceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, deviceURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build device status request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("device status request failed: %w", err)
	}
	status := resp.StatusCode
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	switch {
	case status == http.StatusOK:
		r.logger.Debug("Device already registered", zap.String("device_id", deviceID))
		return nil
	case status != http.StatusNotFound:
		return r.registrationError(status, body)
	}

	r.logger.Info("Registering device", zap.String("device_id", deviceID))

	payload, err := json.Marshal(registerPayload{
		ID:         deviceID,
		ModelID:    r.config.ModelID,
		ClientType: "SDK_SERVICE",
		Nickname:   r.config.Nickname,
	})
	if err != nil {
		return fmt.Errorf("failed to encode registration payload: %w", err)
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodPost, baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err = client.Do(req)
	if err != nil {
		return fmt.Errorf("registration request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return r.registrationError(resp.StatusCode, body)
	}

	r.logger.Info("Device registered", zap.String("device_id", deviceID))
	return nil
}

// registrationError extracts the error status and message from the API's
// JSON error envelope when present.
func (r *GoogleRegistrar) registrationError(statusCode int, body []byte) error {
	regErr := &entities.RegistrationError{
		StatusCode: statusCode,
		Message:    string(body),
		ModelID:    r.config.ModelID,
	}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		regErr.Message = envelope.Error.Message
		regErr.Status = envelope.Error.Status
	}
	return regErr
}
