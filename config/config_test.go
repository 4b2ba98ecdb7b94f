package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenUnset(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.90, s.MatchThreshold)
	assert.Equal(t, "development", s.Env)
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	t.Setenv("INVOICEFLOW_MATCH_THRESHOLD", "0.75")
	t.Setenv("INVOICEFLOW_REVIEW_EXPIRY_HOURS", "24")
	t.Setenv("INVOICEFLOW_ENV", "production")
	t.Setenv("INVOICEFLOW_FRONTEND_BASE_URL", "https://review.example.com")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.75, s.MatchThreshold)
	assert.Equal(t, 24*time.Hour, s.ReviewExpiryHours)
	assert.True(t, s.IsProduction())
	assert.Equal(t, "https://review.example.com", s.FrontendBaseURL)
}

func TestLoad_RejectsMalformedNumber(t *testing.T) {
	t.Setenv("INVOICEFLOW_MATCH_THRESHOLD", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsOutOfRangeThreshold(t *testing.T) {
	t.Setenv("INVOICEFLOW_MATCH_THRESHOLD", "1.5")

	_, err := Load()
	assert.Error(t, err)
}
