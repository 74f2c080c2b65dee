package openai

import "time"

// Config controls the chat-completions extraction client. BaseURL may point
// at api.openai.com or any compatible endpoint (Azure deployment behind a
// proxy, local gateway).
type Config struct {
	BaseURL         string
	APIKey          string
	Model           string
	Temperature     float32
	Timeout         time.Duration
	LenientSections bool // drop malformed sections instead of failing validation
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4o"
	}
	if c.Timeout <= 0 {
		c.Timeout = 90 * time.Second
	}
	return c
}
