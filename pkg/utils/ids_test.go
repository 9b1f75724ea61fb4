package utils

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUIDv7(t *testing.T) {
	a, b := GenerateUUIDv7(), GenerateUUIDv7()
	assert.Equal(t, uuid.Version(7), a.Version())
	assert.NotEqual(t, a, b)

	orig := newUUIDv7
	t.Cleanup(func() { newUUIDv7 = orig })
	newUUIDv7 = func() (uuid.UUID, error) { return uuid.Nil, errors.New("clock") }

	id := GenerateUUIDv7()
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, uuid.Version(4), id.Version())
}

func TestGenerateReceiptNumber(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	number, err := GenerateReceiptNumber(now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^GV2026-\d{6}-[0-9a-z]{4}$`), number)
	assert.Contains(t, number, fmt.Sprintf("-%06d-", now.UnixMilli()%1_000_000))

	orig := randomSuffix
	t.Cleanup(func() { randomSuffix = orig })
	randomSuffix = func(int) (string, error) { return "", errors.New("entropy") }

	_, err = GenerateReceiptNumber(now)
	assert.ErrorContains(t, err, "receipt suffix: entropy")
}
