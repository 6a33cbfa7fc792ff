package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// Values come from env plus the practice YAML file; env overrides win.
// No business logic should depend on raw environment variables.
type Config struct {
	App      AppConfig
	Twilio   TwilioConfig
	Speech   SpeechConfig
	Storage  StorageConfig
	Sessions SessionConfig
	Redis    RedisConfig
	Debug    DebugConfig
	Practice Practice
}

type AppConfig struct {
	Env  string
	Port int
}

type TwilioConfig struct {
	AuthToken        string
	VerifySignatures bool
}

type SpeechConfig struct {
	Voice    string
	Language string
}

type StorageConfig struct {
	DataDir        string
	TranscriptsDir string
	ScheduleCSV    string
}

type SessionConfig struct {
	// TTL is the idle window after which an orphaned session is reaped.
	TTL time.Duration
	// ReapSchedule is a cron expression for the reaper job.
	ReapSchedule string
}

type RedisConfig struct {
	// Addr is optional; when set the completion guard uses redis so
	// duplicate status callbacks stay idempotent across restarts.
	Addr string
}

type DebugConfig struct {
	// TokenSecret signs bearer tokens for the /debug group.
	// Empty disables the debug surface entirely.
	TokenSecret string
}

const (
	FallbackVoice    = "alice"
	FallbackLanguage = "en-GB"
)

func Load() (Config, error) {
	c := Config{}
	var errs []error

	c.App.Env = envOr("APP_ENV", "local")
	{
		n, err := intOr("PORT", 8080)
		if err != nil {
			errs = append(errs, err)
		}
		c.App.Port = n
	}

	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	{
		b, err := boolOr("VERIFY_TWILIO_SIGNATURES", false)
		if err != nil {
			errs = append(errs, err)
		}
		c.Twilio.VerifySignatures = b
	}

	practicePath := envOr("PRACTICE_CONFIG", "config/practice.yml")
	practice, err := LoadPractice(practicePath)
	if err != nil {
		errs = append(errs, err)
	}
	c.Practice = practice

	// Env overrides beat the practice file; both fall back to built-ins.
	c.Speech.Voice = firstNonEmpty(os.Getenv("TTS_VOICE"), practice.Voice, FallbackVoice)
	c.Speech.Language = firstNonEmpty(os.Getenv("TTS_LANG"), practice.Language, FallbackLanguage)

	c.Storage.DataDir = envOr("DATA_DIR", "data")
	c.Storage.TranscriptsDir = envOr("TRANSCRIPTS_DIR", "transcripts")
	c.Storage.ScheduleCSV = envOr("SCHEDULE_CSV", "data/schedule.csv")

	{
		d, err := durationOr("SESSION_TTL", 30*time.Minute)
		if err != nil {
			errs = append(errs, err)
		}
		c.Sessions.TTL = d
	}
	c.Sessions.ReapSchedule = envOr("REAP_SCHEDULE", "@every 1m")

	c.Redis.Addr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	c.Debug.TokenSecret = os.Getenv("DEBUG_TOKEN_SECRET")

	if err := joinErrors(errs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error

	if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a valid port, got %d", c.App.Port))
	}

	// Refusing to start beats silently serving unauthenticated webhooks.
	if c.Twilio.VerifySignatures && c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("VERIFY_TWILIO_SIGNATURES is enabled but TWILIO_AUTH_TOKEN is not set"))
	}

	if c.Sessions.TTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be positive, got %s", c.Sessions.TTL))
	}
	if strings.TrimSpace(c.Sessions.ReapSchedule) == "" {
		errs = append(errs, errors.New("REAP_SCHEDULE must not be empty"))
	}

	if c.Storage.DataDir == "" || c.Storage.TranscriptsDir == "" || c.Storage.ScheduleCSV == "" {
		errs = append(errs, errors.New("DATA_DIR, TRANSCRIPTS_DIR and SCHEDULE_CSV are required"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) DebugEnabled() bool {
	return c.Debug.TokenSecret != ""
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intOr(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func boolOr(key string, fallback bool) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
}

func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, v)
	}
	return d, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
