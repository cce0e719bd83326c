package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateBookId derives a deterministic catalog id from title and author so
// the same book discovered twice resolves to the same row.
func GenerateBookId(title, author string) string {
	combined := strings.ToLower(strings.TrimSpace(title)) + ":" + strings.ToLower(strings.TrimSpace(author))
	sum := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(sum[:])[:12]
}

// GenerateDynamicBookId mints an id for generative discoveries that have no
// stable bibliographic identity.
func GenerateDynamicBookId() string {
	return fmt.Sprintf("dyn_%s", uuid.NewString())
}
