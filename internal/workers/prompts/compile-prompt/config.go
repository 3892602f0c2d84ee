// internal/workers/prompts/compile-prompt/config.go
package compileprompt

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
