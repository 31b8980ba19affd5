package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "1,234,567", FormatNumber(1234567))
	assert.Equal(t, "-12,345", FormatNumber(-12345))
}

func TestFormatTimeAgo(t *testing.T) {
	assert.Equal(t, "Never", FormatTimeAgo(0))
	assert.Equal(t, "Just now", FormatTimeAgo(time.Now().UnixMilli()))
	assert.Equal(t, "5m ago", FormatTimeAgo(time.Now().Add(-5*time.Minute).UnixMilli()))
}

func TestRandomHex(t *testing.T) {
	first := RandomHex(16)
	assert.Len(t, first, 32)
	assert.NotEqual(t, first, RandomHex(16))
}
