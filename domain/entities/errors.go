package entities

import (
	"errors"
	"fmt"
)

// ErrAccountNotLinked is returned when the skill request carries no
// delegated access token. The caller must answer with an account-linking
// prompt; the exchange is never retried.
var ErrAccountNotLinked = errors.New("user has not linked their Google account")

// ErrUnsupportedSampleWidth is a programmer error: audio normalization was
// invoked on a sample width other than 16-bit.
var ErrUnsupportedSampleWidth = errors.New("unsupported audio sample width")

// ErrVolumeOutOfRange rejects volume percentages outside [1,100] instead of
// extrapolating the logarithmic scale beyond its intended domain.
var ErrVolumeOutOfRange = errors.New("volume percentage out of range")

// RegistrationError reports a failed device registration handshake against
// the remote device API. It is fatal for the current exchange and the new
// device identity must not be persisted.
type RegistrationError struct {
	StatusCode int
	Status     string
	Message    string
	ModelID    string
}

func (e *RegistrationError) Error() string {
	status := e.Status
	if status == "" {
		status = "ERROR"
	}
	return fmt.Sprintf("failed to register device model %s: %s (%d): %s",
		e.ModelID, status, e.StatusCode, e.Message)
}
