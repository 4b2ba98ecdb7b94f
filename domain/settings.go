package domain

import "time"

// Settings is the single process-wide configuration record recognized by
// the pipeline. Zero values are not valid defaults; use config.Load to
// populate one with the documented defaults applied.
type Settings struct {
	MatchThreshold       float64       `validate:"gte=0,lte=1"`
	TwoWayTolerancePct   float64       `validate:"gt=0"`
	AutoApproveThreshold float64       `validate:"gte=0"`
	ReviewExpiryHours    time.Duration `validate:"gt=0"`
	Env                  string        `validate:"oneof=development production"`
	FrontendBaseURL      string        `validate:"required,url"`
	LLMFallbackKey       string
	LLMProvider          string `validate:"omitempty,oneof=anthropic openai"`
}

// DefaultSettings returns the documented defaults from the configuration
// table (env=development, llm_fallback_key unset).
func DefaultSettings() Settings {
	return Settings{
		MatchThreshold:       0.90,
		TwoWayTolerancePct:   5.0,
		AutoApproveThreshold: 10000,
		ReviewExpiryHours:    72 * time.Hour,
		Env:                  "development",
		FrontendBaseURL:      "http://localhost:3000",
		LLMProvider:          "anthropic",
	}
}

// Validate checks the settings against their documented constraints.
func (s *Settings) Validate() error {
	return validate.Struct(s)
}

// IsProduction reports whether Env selects production-tier selector rules.
func (s *Settings) IsProduction() bool {
	return s.Env == "production"
}

// IsDevelopment reports whether Env selects development-tier selector rules.
func (s *Settings) IsDevelopment() bool {
	return s.Env == "development"
}
