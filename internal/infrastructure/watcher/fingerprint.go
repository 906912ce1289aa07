package watcher

import (
	"os"

	"github.com/tradeops/masterdata/internal/domain/masterdata"
)

// FingerprintFile hashes the file's current content. Errors are returned
// as-is, a file mid-save or briefly absent simply cannot be fingerprinted
// right now.
func FingerprintFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return masterdata.FingerprintBytes(data), nil
}
