package feedback

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// urlHash keys Redis entries by content URL without storing the URL itself.
func urlHash(url string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(url)))
	return hex.EncodeToString(sum[:])
}
