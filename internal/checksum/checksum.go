// Package checksum computes the content digests used as note ETags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/starford/notedeck/internal/models"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Note returns a digest over every mutable field of n. Any update, archive
// or date change yields a different value.
func Note(n models.Note) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(n.ID))
	for _, f := range []string{n.Title, n.Content, strings.Join(n.Categories, "\x1f"), n.Date, strconv.FormatBool(n.IsActive)} {
		b.WriteByte(0)
		b.WriteString(f)
	}
	return Sum([]byte(b.String()))
}
