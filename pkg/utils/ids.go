package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gradvillage.backend/pkg/crypto"
)

var (
	newUUIDv7    = uuid.NewV7
	randomSuffix = crypto.RandomBase36
)

// GenerateUUIDv7 returns a time-ordered id so primary keys index in insert
// order. A v4 id is returned if the clock source fails.
func GenerateUUIDv7() uuid.UUID {
	if id, err := newUUIDv7(); err == nil {
		return id
	}
	return uuid.New()
}

// GenerateReceiptNumber returns GV<year>-<last 6 digits of epoch ms>-<4 base36 chars>.
func GenerateReceiptNumber(now time.Time) (string, error) {
	suffix, err := randomSuffix(4)
	if err != nil {
		return "", fmt.Errorf("receipt suffix: %w", err)
	}
	return fmt.Sprintf("GV%d-%06d-%s", now.Year(), now.UnixMilli()%1_000_000, suffix), nil
}
