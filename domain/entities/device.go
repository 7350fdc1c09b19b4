package entities

import (
	"encoding/hex"

	"golang.org/x/crypto/ripemd160"
)

// DeviceIdentity derives the stable per-user device identifier registered
// with the remote assistant service. The platform user ID is hashed so the
// real identifier never leaves the bridge; the result is deterministic for
// the lifetime of the account.
func DeviceIdentity(platformUserID string) string {
	h := ripemd160.New()
	h.Write([]byte(platformUserID))
	return hex.EncodeToString(h.Sum(nil))
}
