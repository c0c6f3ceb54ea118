package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is everything a run needs, sourced from the environment. HEADLESS
// keeps its historical name from the earlier script; everything else lives
// under the CHATWIPE_ prefix.
type Config struct {
	Headless   bool
	BaseURL    string
	LedgerPath string

	// ProfileDir points at an existing browser profile with live session
	// cookies. Empty means auto-discover the default profile.
	ProfileDir string

	// WaitTimeout bounds every individual UI interaction (wait for a
	// selector, click, navigation).
	WaitTimeout time.Duration

	// RetryLimit is the per-conversation attempt ceiling before a
	// conversation is skipped for the rest of the run.
	RetryLimit int

	// AttemptBudget caps total deletion attempts across the whole run, as a
	// guard against a page that never converges.
	AttemptBudget int

	// DeletesPerMinute paces deletion attempts against the remote app.
	DeletesPerMinute int

	// Container launches the browser as a browserless/chrome container and
	// attaches over its CDP websocket instead of exec-ing a local Chrome.
	Container bool
}

const (
	defaultBaseURL          = "https://chat.openai.com/"
	defaultLedgerPath       = "deleted_chats.jsonl"
	defaultWaitTimeout      = 10 * time.Second
	defaultRetryLimit       = 3
	defaultAttemptBudget    = 500
	defaultDeletesPerMinute = 20
)

// FromEnv builds a Config from the process environment, applying defaults for
// anything unset.
func FromEnv() (Config, error) {
	cfg := Config{
		Headless:   boolEnv("HEADLESS", true),
		BaseURL:    stringEnv("CHATWIPE_BASE_URL", defaultBaseURL),
		LedgerPath: stringEnv("CHATWIPE_LEDGER", defaultLedgerPath),
		ProfileDir: os.Getenv("CHATWIPE_PROFILE_DIR"),
		Container:  boolEnv("CHATWIPE_CONTAINER", false),
	}

	var err error
	if cfg.WaitTimeout, err = durationEnv("CHATWIPE_WAIT_TIMEOUT", defaultWaitTimeout); err != nil {
		return Config{}, err
	}
	if cfg.RetryLimit, err = intEnv("CHATWIPE_RETRY_LIMIT", defaultRetryLimit); err != nil {
		return Config{}, err
	}
	if cfg.AttemptBudget, err = intEnv("CHATWIPE_ATTEMPT_BUDGET", defaultAttemptBudget); err != nil {
		return Config{}, err
	}
	if cfg.DeletesPerMinute, err = intEnv("CHATWIPE_DELETES_PER_MINUTE", defaultDeletesPerMinute); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL must not be empty")
	}
	if c.LedgerPath == "" {
		return fmt.Errorf("ledger path must not be empty")
	}
	if c.WaitTimeout <= 0 {
		return fmt.Errorf("wait timeout must be positive, got %s", c.WaitTimeout)
	}
	if c.RetryLimit < 1 {
		return fmt.Errorf("retry limit must be at least 1, got %d", c.RetryLimit)
	}
	if c.AttemptBudget < 1 {
		return fmt.Errorf("attempt budget must be at least 1, got %d", c.AttemptBudget)
	}
	if c.DeletesPerMinute < 1 {
		return fmt.Errorf("deletes per minute must be at least 1, got %d", c.DeletesPerMinute)
	}
	return nil
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// boolEnv treats "0", "false" and "no" as false, everything else as the
// default or true. HEADLESS=0 is the documented way to watch the browser.
func boolEnv(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	switch v {
	case "0", "false", "no":
		return false
	}
	return true
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
