package masterdata

import (
	"crypto/sha256"
	"encoding/hex"
)

// FingerprintBytes returns the content fingerprint used to detect source
// file changes. Loader and watcher must agree on this, so it lives here.
func FingerprintBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
