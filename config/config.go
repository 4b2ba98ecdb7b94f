// Package config loads domain.Settings from the process environment.
//
// No configuration-loading library in the example corpus covers this
// concern, so Load is implemented on the standard library alone: it reads
// well-known INVOICEFLOW_* environment variables, falls back to
// domain.DefaultSettings for anything unset, and validates the result with
// github.com/go-playground/validator/v10 (already used for Invoice and
// Settings elsewhere in the domain package).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/lumenpay/invoiceflow/domain"
)

// Load builds a domain.Settings from environment variables, applying
// documented defaults for anything unset, then validates it.
func Load() (domain.Settings, error) {
	s := domain.DefaultSettings()

	if v, ok := os.LookupEnv("INVOICEFLOW_MATCH_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, fmt.Errorf("INVOICEFLOW_MATCH_THRESHOLD: %w", err)
		}
		s.MatchThreshold = f
	}

	if v, ok := os.LookupEnv("INVOICEFLOW_TWO_WAY_TOLERANCE_PCT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, fmt.Errorf("INVOICEFLOW_TWO_WAY_TOLERANCE_PCT: %w", err)
		}
		s.TwoWayTolerancePct = f
	}

	if v, ok := os.LookupEnv("INVOICEFLOW_AUTO_APPROVE_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, fmt.Errorf("INVOICEFLOW_AUTO_APPROVE_THRESHOLD: %w", err)
		}
		s.AutoApproveThreshold = f
	}

	if v, ok := os.LookupEnv("INVOICEFLOW_REVIEW_EXPIRY_HOURS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return s, fmt.Errorf("INVOICEFLOW_REVIEW_EXPIRY_HOURS: %w", err)
		}
		s.ReviewExpiryHours = time.Duration(n) * time.Hour
	}

	if v, ok := os.LookupEnv("INVOICEFLOW_ENV"); ok {
		s.Env = v
	}

	if v, ok := os.LookupEnv("INVOICEFLOW_FRONTEND_BASE_URL"); ok {
		s.FrontendBaseURL = v
	}

	if v, ok := os.LookupEnv("INVOICEFLOW_LLM_FALLBACK_KEY"); ok {
		s.LLMFallbackKey = v
	}

	if v, ok := os.LookupEnv("INVOICEFLOW_LLM_PROVIDER"); ok {
		s.LLMProvider = v
	}

	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}
