package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// NoteID derives a note identifier from the title and the current nanosecond
// timestamp. The digest is truncated to 32 hex characters, which keeps ids
// unique in practice while staying readable in history output.
func NoteID(title string) string {
	return Sum([]byte(fmt.Sprintf("%s%d", title, time.Now().UnixNano())))[:32]
}
