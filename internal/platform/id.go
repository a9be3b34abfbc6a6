package platform

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entity IDs are a type prefix ("ten_", "inv_", ...) followed by ten
// lowercase alphanumerics. Session tokens and webhook delivery IDs use
// plain UUIDs.
const (
	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	idSuffix   = 10
)

// NewID returns a random UUIDv4 string.
func NewID() string { return uuid.NewString() }

// NewName returns prefix plus a random suffix. Bytes at or above the
// largest multiple of the alphabet size are redrawn to keep the
// distribution uniform.
func NewName(prefix string) string {
	const limit = 256 - 256%len(idAlphabet)

	out := make([]byte, 0, len(prefix)+idSuffix)
	out = append(out, prefix...)
	buf := make([]byte, idSuffix*2)
	for len(out) < len(prefix)+idSuffix {
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand: " + err.Error())
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, idAlphabet[int(b)%len(idAlphabet)])
			if len(out) == len(prefix)+idSuffix {
				break
			}
		}
	}
	return string(out)
}

// InvoiceNumber formats a sequence value as INV-YYYYMM-NNNNN.
func InvoiceNumber(issued time.Time, seq int64) string {
	return fmt.Sprintf("INV-%s-%05d", issued.UTC().Format("200601"), seq)
}
